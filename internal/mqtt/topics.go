package mqtt

import "strings"

// Topic layout, one node per device host:
//
//	eink_canvas/<id>/state            retained JSON entity view
//	eink_canvas/<id>/availability     "online" / "offline"
//	eink_canvas/<id>/command/press    button command name payload
//	eink_canvas/<id>/set/<axis>       select label payload
//	eink_canvas/<id>/set/name         device name payload
const baseTopic = "eink_canvas"

// deviceID turns a host into a topic- and unique-id-safe identifier.
func deviceID(host string) string {
	replacer := strings.NewReplacer(".", "_", ":", "_", "/", "_")
	return replacer.Replace(strings.ToLower(strings.TrimSpace(host)))
}

type topics struct {
	state        string
	availability string
	press        string
	setPrefix    string
}

func topicsFor(host string) topics {
	node := baseTopic + "/" + deviceID(host)
	return topics{
		state:        node + "/state",
		availability: node + "/availability",
		press:        node + "/command/press",
		setPrefix:    node + "/set/",
	}
}
