package entities

// Legacy schema: the shape of the pre-rewrite local database
// (restaurants/concepts/curators). These models are read-only inputs to
// the migration engine and are never written by the current code.

type LegacyCurator struct {
	ID    uint   `gorm:"primaryKey"`
	Name  string `gorm:"size:256"`
	Email string `gorm:"size:255"`
}

func (LegacyCurator) TableName() string {
	return "curators"
}

type LegacyRestaurant struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:512"`
	Address   string `gorm:"size:512"`
	City      string `gorm:"size:256"`
	Country   string `gorm:"size:128"`
	Phone     string `gorm:"size:64"`
	Website   string `gorm:"size:512"`
	CuratorID uint   `gorm:"column:curator_id"`
	// Optional enrichment blobs carried over when present.
	GooglePlaces string `gorm:"column:google_places;type:text"` // JSON
	Michelin     string `gorm:"column:michelin;type:text"`      // JSON
}

func (LegacyRestaurant) TableName() string {
	return "restaurants"
}

type LegacyConcept struct {
	ID           uint   `gorm:"primaryKey"`
	RestaurantID uint   `gorm:"column:restaurant_id"`
	CuratorID    uint   `gorm:"column:curator_id"`
	Category     string `gorm:"size:100"`
	Concept      string `gorm:"size:256"`
	Notes        string `gorm:"type:text"`
	Tags         string `gorm:"type:text"` // JSON array
}

func (LegacyConcept) TableName() string {
	return "concepts"
}
