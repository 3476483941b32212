package employee

import (
	"errors"

	"personel-backend/internal/models"

	"gorm.io/gorm"
)

// Yönetici ataması reddi sebepleri. Handler bunları kullanıcıya dönen
// mesajlara çevirir.
var (
	ErrManagerNotFound = errors.New("yönetici bulunamadı")
	ErrManagerInactive = errors.New("yönetici aktif durumda değil")
	ErrSelfReference   = errors.New("çalışan kendi yöneticisi olamaz")
	ErrCyclicHierarchy = errors.New("döngüsel yönetici hiyerarşisi oluşur")
)

// managerLookup hiyerarşi yürüyüşünün tek ihtiyacı: EmployeeID ile kayıt
// bulmak. Üretimde GORM, testlerde in-memory bir fake kullanılır.
// Kayıt yoksa gorm.ErrRecordNotFound dönmeli.
type managerLookup interface {
	byEmployeeID(employeeID string) (*models.Employee, error)
}

type gormLookup struct {
	db *gorm.DB
}

func (g gormLookup) byEmployeeID(employeeID string) (*models.Employee, error) {
	var emp models.Employee
	if err := g.db.First(&emp, "employee_id = ?", employeeID).Error; err != nil {
		return nil, err
	}
	return &emp, nil
}

// ValidateManagerAssignment bir yönetici atamasının geçerli olup olmadığına
// karar verir. Sıralı kontroller, ilk hatada durur:
//  1. Aday yönetici mevcut mu?
//  2. Aday yönetici aktif mi?
//  3. Çalışan kendini yönetici olarak gösteriyor mu? (employeeID biliniyorsa)
//  4. Atama yönetici zincirinde döngü oluşturur mu? (employeeID biliniyorsa)
//
// Zincir yürüyüşü iteratiftir ve visited set ile korunur: veride halihazırda
// bozuk bir döngü olsa bile sonlanır. Salt okunurdur, yan etkisi yoktur.
//
// Not: iki eşzamanlı update, ikisinin de eski bir snapshot'a göre geçerli
// görünüp birlikte döngü oluşturmasına izin verebilir. Bu bilinen bir yarış
// penceresidir; kilit eklenmedi.
func ValidateManagerAssignment(lookup managerLookup, employeeID, managerID string) error {
	mgr, err := lookup.byEmployeeID(managerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrManagerNotFound
	}
	if err != nil {
		return err
	}

	if mgr.Status != models.StatusActive {
		return ErrManagerInactive
	}

	// Create akışında employeeID henüz yoksa self/döngü kontrolü anlamsız
	if employeeID == "" {
		return nil
	}

	if managerID == employeeID {
		return ErrSelfReference
	}

	visited := map[string]bool{managerID: true}
	current := mgr
	for current.ManagerID != nil && *current.ManagerID != "" {
		next := *current.ManagerID
		if next == employeeID || visited[next] {
			return ErrCyclicHierarchy
		}
		visited[next] = true

		parent, err := lookup.byEmployeeID(next)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Kopuk referans: zincir burada biter, kök kabul et
			break
		}
		if err != nil {
			return err
		}
		current = parent
	}

	return nil
}
