// Package constants contains the fixed offsets and keys of the HAFAS binary trip format.
package constants

// Offsets into the main header.
const (
	VersionOffset            = 0x00
	ResultLocationsOffset    = 0x02
	NumTripsOffset           = 0x1E
	ServiceDaysPtrOffset     = 0x20
	StringTablePtrOffset     = 0x24
	ReferenceDateOffset      = 0x28
	StationTablePtrOffset    = 0x36
	CommentTablePtrOffset    = 0x3A
	ExtensionHeaderPtrOffset = 0x46
	TripsOffset              = 0x4A

	TripRecordSize      = 12
	LegRecordSize       = 20
	LocationRecordSize  = 14
	TripDetailsLegSize  = 16
	TripDetailsStopSize = 26
	TripDetailsVersion  = 1
	AttributeRecordSize = 4
)

// Offsets into the extension header, relative to its start.
const (
	ExtSeqNrOffset            = 0x08
	ExtRequestIDOffset        = 0x0A
	ExtTripDetailsPtrOffset   = 0x0C
	ExtErrorCodeOffset        = 0x10
	ExtDisruptionsPtrOffset   = 0x14
	ExtEncodingOffset         = 0x20
	ExtLdOffset               = 0x22
	ExtAttrsOffsetOffset      = 0x24
	ExtTripAttrsPtrOffset     = 0x2C
	ExtMinLengthForLegDetails = 0x28
	ExtMinLengthForLegAttrs   = 0x30
)

// NoTime marks an absent time field.
const NoTime = 0xFFFF

// AttributeKey is a key of the attribute key/value table.
type AttributeKey string

const (
	AttrDirection      AttributeKey = "Direction"
	AttrClass          AttributeKey = "Class"
	AttrCategory       AttributeKey = "Category"
	AttrGisRoutingType AttributeKey = "GisRoutingType"
	AttrAdminCode      AttributeKey = "AdminCode"
	AttrConnectionID   AttributeKey = "ConnectionId"
	AttrText           AttributeKey = "Text"
)

// LegType is the raw type code of a leg record.
type LegType uint16

const (
	LegTypeFootpath  LegType = 1
	LegTypePublic    LegType = 2
	LegTypeTransfer  LegType = 3
	LegTypeTransfer2 LegType = 4
)

// Cancellation bits of trip-details leg and stop records.
const (
	ArrivalCancelledBit   = 0x10
	DepartureCancelledBit = 0x20
)

// RealtimeStatusCancelled marks a trip that does not run at all.
const RealtimeStatusCancelled = 2
