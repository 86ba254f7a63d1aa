package itc

// ModuleClass is the catalogue class token identifying a module's kind.
type ModuleClass string

const (
	ClassTemperature ModuleClass = "TEMP"
	ClassHeater      ModuleClass = "HTR"
	ClassAux         ModuleClass = "AUX"
)

// loopNone is the instrument's sentinel for "no module associated" in
// control-loop heater and aux bindings.
const loopNone = "None"

// Module is the common surface of every discovered module, independent
// of class. Typed accessors live on the concrete *Heater, *TempSensor
// and *Aux types.
type Module interface {
	// Address returns the full device address, e.g. "DEV:MB0.H1:HTR".
	Address() string

	// UID returns the board identifier, e.g. "MB0.H1".
	UID() string

	// Class returns the catalogue class token.
	Class() ModuleClass

	// Nick returns the user-assigned nickname (cached).
	Nick() (string, error)

	// SetNick assigns a new nickname.
	SetNick(nick string) error

	// SerialNumber returns the board serial number (cached).
	SerialNumber() (string, error)

	// FirmwareVersion returns the board firmware version (cached).
	FirmwareVersion() (string, error)

	// HardwareVersion returns the board hardware version (cached).
	HardwareVersion() (string, error)

	// Attributes lists the module's attribute contracts.
	Attributes() []AttributeInfo

	// ReadAttribute reads any attribute by protocol token, returning its
	// raw wire value. Returns ErrUnknownAttribute for tokens outside the
	// module's table.
	ReadAttribute(token string) (string, error)

	// WriteAttribute writes any writable attribute by protocol token. The
	// value is validated against the attribute's contract before it is
	// sent. Returns ErrUnknownAttribute for tokens outside the module's
	// table and ErrReadOnly for read-only attributes.
	WriteAttribute(token, value string) error

	// Invalidate drops one cached attribute value.
	Invalidate(token string)

	// ClearCache drops every cached attribute value of this module.
	ClearCache()
}

// Identity descriptors shared by every module class.
var (
	descNick        = descriptor{token: "NICK", kind: KindString, direction: ReadWrite, cacheable: true}
	descModSerial   = descriptor{token: "MAN:SERL", kind: KindString, direction: ReadOnly, cacheable: true}
	descModFirmware = descriptor{token: "MAN:FVER", kind: KindString, direction: ReadOnly, cacheable: true}
	descModHardware = descriptor{token: "MAN:HVER", kind: KindString, direction: ReadOnly, cacheable: true}
)

func identityDescriptors() []descriptor {
	return []descriptor{descNick, descModSerial, descModFirmware, descModHardware}
}

// moduleBase carries the identity attributes and the back-reference to
// the owning driver. Concrete module types embed it.
type moduleBase struct {
	attrs
	class  ModuleClass
	uid    string
	driver *Driver
}

func newModuleBase(address, uid string, class ModuleClass, driver *Driver, table map[string]descriptor) moduleBase {
	return moduleBase{
		attrs:  attrs{address: address, x: driver, table: table},
		class:  class,
		uid:    uid,
		driver: driver,
	}
}

// UID returns the board identifier, e.g. "MB0.H1".
func (m *moduleBase) UID() string {
	return m.uid
}

// Class returns the catalogue class token.
func (m *moduleBase) Class() ModuleClass {
	return m.class
}

// Nick returns the user-assigned nickname (cached).
func (m *moduleBase) Nick() (string, error) {
	return m.readString(descNick)
}

// SetNick assigns a new nickname.
func (m *moduleBase) SetNick(nick string) error {
	return m.writeString(descNick, nick)
}

// SerialNumber returns the board serial number (cached).
func (m *moduleBase) SerialNumber() (string, error) {
	return m.readString(descModSerial)
}

// FirmwareVersion returns the board firmware version (cached).
func (m *moduleBase) FirmwareVersion() (string, error) {
	return m.readString(descModFirmware)
}

// HardwareVersion returns the board hardware version (cached).
func (m *moduleBase) HardwareVersion() (string, error) {
	return m.readString(descModHardware)
}
