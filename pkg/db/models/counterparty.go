package models

// Customer is a counterparty on sale lines and receivables.
type Customer struct {
	ID      int64  `gorm:"column:id;primaryKey"`
	Name    string `gorm:"column:name;not null"`
	TaxID   string `gorm:"column:tax_id;not null;uniqueIndex"`
	Address string `gorm:"column:address;not null;default:''"`
	Phone   string `gorm:"column:phone;not null;default:''"`
}

func (Customer) TableName() string { return "customers" }

// Supplier is a counterparty on purchase lines and payables.
type Supplier struct {
	ID        int64  `gorm:"column:id;primaryKey"`
	Name      string `gorm:"column:name;not null"`
	TaxID     string `gorm:"column:tax_id;not null;uniqueIndex"`
	Address   string `gorm:"column:address;not null;default:''"`
	Phone     string `gorm:"column:phone;not null;default:''"`
	LegalName string `gorm:"column:legal_name;not null;default:''"`
	Email     string `gorm:"column:email;not null;default:''"`
	Locality  string `gorm:"column:locality;not null;default:''"`
}

func (Supplier) TableName() string { return "suppliers" }

// Category is a free-form grouping referenced by products.category text.
type Category struct {
	ID   int64  `gorm:"column:id;primaryKey"`
	Name string `gorm:"column:name;not null;uniqueIndex"`
}

func (Category) TableName() string { return "categories" }
