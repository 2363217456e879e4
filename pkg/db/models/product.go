package models

// Product is chain-global product metadata keyed by barcode. Fields are
// filled in incrementally across stores and days; an incoming null never
// overwrites a previously known value.
type Product struct {
	Barcode      string  `gorm:"column:barcode;primaryKey"`
	Name         *string `gorm:"column:name"`
	Manufacturer *string `gorm:"column:manufacturer"`
	Country      *string `gorm:"column:country"`
	Description  *string `gorm:"column:description"`
}

func (Product) TableName() string { return "products" }
