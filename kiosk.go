package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"gopkg.in/yaml.v2"

	"badgekiosk/auth"
	"badgekiosk/directory"
	"badgekiosk/mqtt"
	"badgekiosk/reader"
)

var myBuild string

// App holds the station state and dependencies.
type App struct {
	cfg    *Config
	mqtt   *mqtt.Client
	rdr    *reader.Session
	svc    *auth.Service
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	lastUser *auth.Employee
}

func main() {
	fmt.Printf("badgekiosk build %s\n", myBuild)

	cfgfile := flag.String("cfg", "kiosk.cfg", "Config file")
	flag.Parse()

	// Load configuration
	f, err := os.Open(*cfgfile)
	if err != nil {
		log.Fatalf("Open config: %v", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		log.Fatalf("Decode config: %v", err)
	}

	if cfg.StationID == "" {
		log.Fatal("station_id missing in config file")
	}

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		cfg:    &cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	// Initialize employee directory
	dir, err := directory.New(cfg.Directory)
	if err != nil {
		log.Fatalf("Init directory: %v", err)
	}
	if closer, ok := dir.(io.Closer); ok {
		defer closer.Close()
	}

	// Initialize authentication service
	app.svc = auth.NewService(dir, cfg.Auth.options())

	// Initialize MQTT
	app.mqtt, err = mqtt.New(cfg.MQTT, cfg.StationID, mqtt.Handlers{
		OnConnect:    app.onMQTTConnect,
		OnDisconnect: app.onMQTTDisconnect,
		OnMessage:    app.onMQTTMessage,
	})
	if err != nil {
		log.Fatalf("Init MQTT: %v", err)
	}

	// Initialize badge reader. A missing reader is not fatal: the station
	// keeps running and employees identify via the fallback configured in
	// the directory.
	app.rdr = reader.NewSession(cfg.Reader)
	if err := app.rdr.Connect(); err != nil {
		log.Printf("Warning: badge reader unavailable: %v", err)
	}
	app.rdr.StartMonitoring(app.handleCard, app.handleReaderStatus)

	// Start background goroutines
	go func() {
		if err := app.mqtt.Connect(); err != nil {
			log.Printf("MQTT connect: %v", err)
		}
	}()
	go app.pingSender()
	go app.sessionWatcher()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("Shutting down...")
	cancel()

	// Cleanup
	app.rdr.Disconnect()
	app.svc.Logout()
	app.mqtt.Disconnect()

	fmt.Println("Shutdown complete")
}

// handleCard processes one scanned badge token.
func (app *App) handleCard(token string) {
	res, emp := app.svc.Authenticate(token)

	switch res {
	case auth.Success:
		log.Printf("Login: %s (%s)", emp.Name, emp.Role)
	case auth.Locked:
		log.Printf("Badge %q locked out, %v remaining", token, app.svc.RemainingLockout(token).Round(time.Second))
	default:
		log.Printf("Badge %q rejected", token)
	}

	app.mqtt.PublishLogin(res, emp)
	app.observeSession()
}

// handleReaderStatus reports polling halts to the backend.
func (app *App) handleReaderStatus(st reader.Status) {
	log.Printf("Reader status: %s (%s)", st.State, st.LastError)
	app.mqtt.PublishReaderStatus(st.State.String(), st.LastError)
}

// observeSession compares the current session owner against the last seen
// one and publishes a logout for whoever left, regardless of whether the
// session ended by badge, idle expiry, replacement or remote command.
func (app *App) observeSession() {
	cur := app.svc.GetCurrentUser()

	app.mu.Lock()
	prev := app.lastUser
	app.lastUser = cur
	app.mu.Unlock()

	if prev != nil && (cur == nil || cur.ID != prev.ID) {
		log.Printf("Logout: %s", prev.Name)
		app.mqtt.PublishLogout(prev)
	}
}

// sessionWatcher polls the session so idle expiry is observed and reported
// even when nobody badges.
func (app *App) sessionWatcher() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			app.observeSession()
		}
	}
}

func (app *App) pingSender() {
	ticker := time.NewTicker(120 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			app.mqtt.PublishPing()
		}
	}
}

func (app *App) onMQTTConnect() {
	if err := app.mqtt.SubscribeCommands(); err != nil {
		log.Printf("Subscribe error: %v", err)
	}

	st := app.rdr.Status()
	app.mqtt.PublishReaderStatus(st.State.String(), st.LastError)
}

func (app *App) onMQTTDisconnect() {
	log.Println("Broker connection lost, station continues standalone")
}

func (app *App) onMQTTMessage(topic string, payload []byte) {
	if topic == app.mqtt.LogoutTopic() {
		log.Println("Received remote logout command")
		app.svc.Logout()
		app.observeSession()
	}
}
