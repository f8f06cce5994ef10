package entities

// WaterSource is one inlet the servo valve can select.
type WaterSource struct {
	ID            string `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	ServoPosition int    `json:"servoPosition" yaml:"servoPosition"`
	Description   string `json:"description" yaml:"description"`
}

// AngleTolerance is how far (in degrees) a reported servo angle may drift
// from a source position and still count as that source.
const AngleTolerance = 10

// DefaultWaterSources is the stock valve layout of the SprinkleX controller.
func DefaultWaterSources() []WaterSource {
	return []WaterSource{
		{ID: "borewell", Name: "Bore Well", ServoPosition: 0, Description: "Ground water from bore well"},
		{ID: "rainwater", Name: "Rain Water Harvesting", ServoPosition: 90, Description: "Collected rainwater"},
		{ID: "canal", Name: "Canal Water", ServoPosition: 180, Description: "Water from irrigation canal"},
	}
}

// FindSourceByAngle returns the first source within tolerance of angle.
func FindSourceByAngle(sources []WaterSource, angle, tolerance int) (WaterSource, bool) {
	for _, s := range sources {
		diff := s.ServoPosition - angle
		if diff < 0 {
			diff = -diff
		}
		if diff <= tolerance {
			return s, true
		}
	}
	return WaterSource{}, false
}

// FindSourceByID looks a source up by its id.
func FindSourceByID(sources []WaterSource, id string) (WaterSource, bool) {
	for _, s := range sources {
		if s.ID == id {
			return s, true
		}
	}
	return WaterSource{}, false
}
