package object

// Rights is the bitmask restricting which operations a handle may perform on
// its referenced object. The bit assignments follow the Zircon rights ABI.
type Rights uint32

const (
	// RightDuplicate allows duplicating the handle.
	RightDuplicate Rights = 1 << 0

	// RightTransfer allows transferring the handle to another process.
	RightTransfer Rights = 1 << 1

	// RightRead allows reading from the object.
	RightRead Rights = 1 << 2

	// RightWrite allows writing to the object.
	RightWrite Rights = 1 << 3

	// RightExecute allows mapping the object executable.
	RightExecute Rights = 1 << 4

	// RightMap allows mapping the object into an address space.
	RightMap Rights = 1 << 5

	// RightGetProperty allows reading object properties.
	RightGetProperty Rights = 1 << 6

	// RightSetProperty allows mutating object properties.
	RightSetProperty Rights = 1 << 7

	// RightEnumerate allows enumerating child objects.
	RightEnumerate Rights = 1 << 8

	// RightDestroy allows destroying the object.
	RightDestroy Rights = 1 << 9

	// RightSetPolicy allows setting the object's policy.
	RightSetPolicy Rights = 1 << 10

	// RightGetPolicy allows reading the object's policy.
	RightGetPolicy Rights = 1 << 11

	// RightSignal allows mutating the object's user signals.
	RightSignal Rights = 1 << 12

	// RightSignalPeer allows mutating the user signals of the object's
	// peer endpoint.
	RightSignalPeer Rights = 1 << 13

	// RightWait allows waiting on the object's signals.
	RightWait Rights = 1 << 14

	// RightInspect allows querying object info.
	RightInspect Rights = 1 << 15

	// RightManageJob allows job management operations.
	RightManageJob Rights = 1 << 16

	// RightManageProcess allows process management operations.
	RightManageProcess Rights = 1 << 17

	// RightManageThread allows thread management operations.
	RightManageThread Rights = 1 << 18

	// RightsBasic is the default right set attached to newly minted
	// handles.
	RightsBasic = RightDuplicate | RightTransfer | RightWait | RightInspect

	// RightsIO grants read/write access.
	RightsIO = RightRead | RightWrite

	// RightsProperty grants property access.
	RightsProperty = RightGetProperty | RightSetProperty

	// RightsDefault is the right set minted for task objects.
	RightsDefault = RightsBasic | RightsIO | RightsProperty |
		RightEnumerate | RightDestroy | RightSignal | RightSignalPeer
)

// Has returns true if r contains every right in required. An empty required
// set is always satisfied.
func (r Rights) Has(required Rights) bool {
	return r&required == required
}
