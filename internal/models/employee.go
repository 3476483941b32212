package models

import "time"

type Department string

// Sabit departman listesi (10 adet)
const (
	DeptEngineering    Department = "Engineering"
	DeptProduct        Department = "Product"
	DeptDesign         Department = "Design"
	DeptMarketing      Department = "Marketing"
	DeptSales          Department = "Sales"
	DeptFinance        Department = "Finance"
	DeptHumanResources Department = "Human Resources"
	DeptOperations     Department = "Operations"
	DeptLegal          Department = "Legal"
	DeptSupport        Department = "Customer Support"
)

func Departments() []Department {
	return []Department{
		DeptEngineering,
		DeptProduct,
		DeptDesign,
		DeptMarketing,
		DeptSales,
		DeptFinance,
		DeptHumanResources,
		DeptOperations,
		DeptLegal,
		DeptSupport,
	}
}

type EmploymentType string

const (
	EmploymentFullTime EmploymentType = "full-time"
	EmploymentPartTime EmploymentType = "part-time"
	EmploymentContract EmploymentType = "contract"
	EmploymentIntern   EmploymentType = "intern"
)

type EmployeeStatus string

const (
	StatusActive     EmployeeStatus = "active"
	StatusInactive   EmployeeStatus = "inactive"
	StatusTerminated EmployeeStatus = "terminated"
)

type Employee struct {
	ID uint `gorm:"primaryKey"`

	// "EMP" + 4 hane, global olarak benzersiz
	EmployeeID string `gorm:"size:10;uniqueIndex;not null"`

	// Kişisel bilgiler
	FirstName  string    `gorm:"size:50;not null"`
	LastName   string    `gorm:"size:50;not null"`
	Email      string    `gorm:"size:100;uniqueIndex;not null"`
	Phone      string    `gorm:"size:30"`
	BirthDate  time.Time `gorm:"not null"`
	Street     string    `gorm:"size:255"`
	City       string    `gorm:"size:100"`
	PostalCode string    `gorm:"size:10"`
	Country    string    `gorm:"size:100"`

	// İş bilgileri
	Title          string         `gorm:"size:100;not null"`
	Department     Department     `gorm:"size:50;index;not null"`
	ManagerID      *string        `gorm:"size:10;index"` // Başka bir Employee'nin EmployeeID'si (zayıf referans)
	StartDate      time.Time      `gorm:"not null"`
	Salary         float64        `gorm:"not null"`
	EmploymentType EmploymentType `gorm:"size:20;not null"`

	Status EmployeeStatus `gorm:"size:20;index;not null;default:active"`

	// Kim oluşturdu / son kim güncelledi
	CreatedByID uint `gorm:"index"`
	UpdatedByID uint `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

func ValidDepartment(d Department) bool {
	for _, v := range Departments() {
		if v == d {
			return true
		}
	}
	return false
}

func ValidEmploymentType(t EmploymentType) bool {
	switch t {
	case EmploymentFullTime, EmploymentPartTime, EmploymentContract, EmploymentIntern:
		return true
	}
	return false
}

func ValidStatus(s EmployeeStatus) bool {
	switch s {
	case StatusActive, StatusInactive, StatusTerminated:
		return true
	}
	return false
}
