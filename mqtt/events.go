package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"badgekiosk/auth"
)

// Topic layout. Status events fan out under wms/status/station/<id>/, the
// backend sends commands on wms/control/station/<id>/.
func (c *Client) statusTopic(event string) string {
	return fmt.Sprintf("wms/status/station/%s/%s", c.stationID, event)
}

// LogoutTopic is the control topic on which the backend forces a logout
// at this station.
func (c *Client) LogoutTopic() string {
	return fmt.Sprintf("wms/control/station/%s/logout", c.stationID)
}

// SubscribeCommands subscribes to every control topic addressed to this
// station.
func (c *Client) SubscribeCommands() error {
	return c.Subscribe(c.LogoutTopic())
}

type loginEvent struct {
	Station  string `json:"station"`
	Result   string `json:"result"`
	Employee int    `json:"employee_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Time     string `json:"time"`
}

type logoutEvent struct {
	Station  string `json:"station"`
	Employee int    `json:"employee_id"`
	Name     string `json:"name"`
	Time     string `json:"time"`
}

type readerEvent struct {
	Station string `json:"station"`
	State   string `json:"state"`
	Error   string `json:"error,omitempty"`
	Time    string `json:"time"`
}

type pingEvent struct {
	Station string `json:"station"`
	Time    string `json:"time"`
}

// PublishLogin reports an authentication attempt. emp is nil unless the
// attempt succeeded.
func (c *Client) PublishLogin(result auth.Result, emp *auth.Employee) {
	ev := loginEvent{
		Station: c.stationID,
		Result:  result.String(),
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	if emp != nil {
		ev.Employee = emp.ID
		ev.Name = emp.Name
	}
	c.publishJSON(c.statusTopic("login"), ev)
}

// PublishLogout reports a session ending, whether badge-initiated, idle
// expiry, or forced by the backend.
func (c *Client) PublishLogout(emp *auth.Employee) {
	if emp == nil {
		return
	}
	c.publishJSON(c.statusTopic("logout"), logoutEvent{
		Station:  c.stationID,
		Employee: emp.ID,
		Name:     emp.Name,
		Time:     time.Now().UTC().Format(time.RFC3339),
	})
}

// PublishReaderStatus reports a reader state change so operations can see
// stations with a dead or unplugged reader.
func (c *Client) PublishReaderStatus(state string, lastError string) {
	c.publishJSON(c.statusTopic("reader"), readerEvent{
		Station: c.stationID,
		State:   state,
		Error:   lastError,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// PublishPing is the periodic liveness beacon.
func (c *Client) PublishPing() {
	c.publishJSON(c.statusTopic("ping"), pingEvent{
		Station: c.stationID,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

func (c *Client) publishJSON(topic string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("mqtt: marshal %s: %v", topic, err)
		return
	}
	c.Publish(topic, payload)
}
