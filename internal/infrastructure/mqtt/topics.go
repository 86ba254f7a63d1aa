package mqtt

import "fmt"

// TopicPrefix is the base for all cryo-core topics.
//
// All topics use the flat scheme: cryocore/{category}/{module}/{detail}
const TopicPrefix = "cryocore"

// Topics provides builders for cryo-core MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	t := topics.Reading("MB1.T1", "SIG:TEMP")
//	// Returns: "cryocore/reading/MB1.T1/SIG:TEMP"
type Topics struct{}

// Reading returns the topic for one polled signal reading of a module.
//
// Example: cryocore/reading/MB1.T1/SIG:TEMP
func (Topics) Reading(uid, signal string) string {
	return fmt.Sprintf("%s/reading/%s/%s", TopicPrefix, uid, signal)
}

// Attribute returns the topic for attribute change notifications.
//
// Example: cryocore/attribute/MB0.H1/VLIM
func (Topics) Attribute(uid, token string) string {
	return fmt.Sprintf("%s/attribute/%s/%s", TopicPrefix, uid, token)
}

// Alarm returns the topic for alarm log entries of a module.
//
// Example: cryocore/alarm/MB0.H1
func (Topics) Alarm(uid string) string {
	return fmt.Sprintf("%s/alarm/%s", TopicPrefix, uid)
}

// Status returns the daemon status topic, also used for the Last Will
// message.
//
// Example: cryocore/status
func (Topics) Status() string {
	return fmt.Sprintf("%s/status", TopicPrefix)
}

// Command returns the topic a remote client writes an attribute on. The
// payload is the raw attribute value.
//
// Example: cryocore/command/MB0.H1/VLIM
func (Topics) Command(uid, token string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, uid, token)
}

// CommandResult returns the topic the daemon answers a command on.
//
// Example: cryocore/command/MB0.H1/VLIM/result
func (Topics) CommandResult(uid, token string) string {
	return fmt.Sprintf("%s/command/%s/%s/result", TopicPrefix, uid, token)
}

// Wildcard patterns for subscriptions.

// AllCommands returns a pattern matching all attribute commands.
//
// Pattern: cryocore/command/+/+
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/command/+/+", TopicPrefix)
}

// AllReadings returns a pattern matching all signal readings.
//
// Pattern: cryocore/reading/+/+
func (Topics) AllReadings() string {
	return fmt.Sprintf("%s/reading/+/+", TopicPrefix)
}

// AllAlarms returns a pattern matching all alarm entries.
//
// Pattern: cryocore/alarm/+
func (Topics) AllAlarms() string {
	return fmt.Sprintf("%s/alarm/+", TopicPrefix)
}

// AllAttributes returns a pattern matching all attribute notifications.
//
// Pattern: cryocore/attribute/+/+
func (Topics) AllAttributes() string {
	return fmt.Sprintf("%s/attribute/+/+", TopicPrefix)
}

// AllTopics returns a pattern matching all cryo-core topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: cryocore/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}
