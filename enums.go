package hafas

import "github.com/jamespfennell/hafas/constants"

// LocationType describes what kind of place a Location is.
type LocationType int32

const (
	LocationType_Any     LocationType = 0
	LocationType_Station LocationType = 1
	LocationType_Address LocationType = 2
	LocationType_POI     LocationType = 3
)

func (t LocationType) String() string {
	switch t {
	case LocationType_Station:
		return "STATION"
	case LocationType_Address:
		return "ADDRESS"
	case LocationType_POI:
		return "POI"
	default:
		return "ANY"
	}
}

func parseLocationType(raw uint16) (LocationType, bool) {
	switch raw {
	case 1:
		return LocationType_Station, true
	case 2:
		return LocationType_Address, true
	case 3:
		return LocationType_POI, true
	default:
		return LocationType_Any, false
	}
}

// IndividualType describes how an individual leg is travelled.
type IndividualType int32

const (
	IndividualType_Walk     IndividualType = 0
	IndividualType_Bike     IndividualType = 1
	IndividualType_Car      IndividualType = 2
	IndividualType_Transfer IndividualType = 3
)

func (t IndividualType) String() string {
	switch t {
	case IndividualType_Walk:
		return "WALK"
	case IndividualType_Bike:
		return "BIKE"
	case IndividualType_Car:
		return "CAR"
	case IndividualType_Transfer:
		return "TRANSFER"
	default:
		return "UNKNOWN"
	}
}

// parseIndividualType refines the leg type code by the GIS routing type attribute.
func parseIndividualType(legType constants.LegType, routingType *string) (IndividualType, bool) {
	if routingType == nil {
		if legType == constants.LegTypeFootpath {
			return IndividualType_Walk, true
		}
		return IndividualType_Transfer, true
	}
	switch *routingType {
	case "FOOT":
		return IndividualType_Walk, true
	case "BIKE":
		return IndividualType_Bike, true
	case "CAR", "P+R":
		return IndividualType_Car, true
	default:
		return IndividualType_Walk, false
	}
}

// LineAttribute is a service feature of a line, derived from leg comments.
type LineAttribute int32

const (
	LineAttribute_WheelChairAccess LineAttribute = 0
	LineAttribute_BicycleCarriage  LineAttribute = 1
)

func (a LineAttribute) String() string {
	switch a {
	case LineAttribute_WheelChairAccess:
		return "WHEEL_CHAIR_ACCESS"
	case LineAttribute_BicycleCarriage:
		return "BICYCLE_CARRIAGE"
	default:
		return "UNKNOWN"
	}
}
