package employee

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"personel-backend/internal/models"
)

// Alan doğrulama hatası. Tüm hatalar toplanıp birlikte döner; istemci tek
// seferde hepsini düzeltebilsin diye ilk hatada kesilmez.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value"`
}

// Bir kural istek üzerinde saf bir kontroldür; hata yoksa nil döner.
type rule func(r *EmployeeRequest) *FieldError

const (
	minAge = 16
	maxAge = 100

	maxSalary       = 10_000_000.0
	internSalaryCap = 50_000.0
)

var (
	namePattern   = regexp.MustCompile(`^[\p{L}][\p{L} .'-]{1,49}$`)
	emailPattern  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern  = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{6,18}$`)
	postalPattern = regexp.MustCompile(`^[0-9]{4,10}$`)
)

// ValidateCreate create kurallarını sırayla çalıştırır; zorunlu alanlar
// burada denetlenir.
func ValidateCreate(r *EmployeeRequest) []FieldError {
	return runRules(r, createRules)
}

// ValidateUpdate update kurallarını çalıştırır; her alan opsiyoneldir,
// sadece gönderilen alanlar denetlenir.
func ValidateUpdate(r *EmployeeRequest) []FieldError {
	return runRules(r, updateRules)
}

func runRules(r *EmployeeRequest, rules []rule) []FieldError {
	var errs []FieldError
	for _, check := range rules {
		if fe := check(r); fe != nil {
			errs = append(errs, *fe)
		}
	}
	return errs
}

// Create: zorunlu alan kuralları + şekil kuralları.
// Update: aynı şekil kuralları, zorunluluk yok.
var (
	createRules = buildRules(true)
	updateRules = buildRules(false)
)

func buildRules(required bool) []rule {
	return []rule{
		stringRule(required, "personalInfo.firstName",
			func(r *EmployeeRequest) *string { return personalField(r, func(p *PersonalInfoPayload) *string { return p.FirstName }) },
			checkName("Ad")),
		stringRule(required, "personalInfo.lastName",
			func(r *EmployeeRequest) *string { return personalField(r, func(p *PersonalInfoPayload) *string { return p.LastName }) },
			checkName("Soyad")),
		stringRule(required, "personalInfo.email",
			func(r *EmployeeRequest) *string { return personalField(r, func(p *PersonalInfoPayload) *string { return p.Email }) },
			checkEmail),
		stringRule(false, "personalInfo.phone",
			func(r *EmployeeRequest) *string { return personalField(r, func(p *PersonalInfoPayload) *string { return p.Phone }) },
			checkPhone),
		stringRule(false, "personalInfo.address.postalCode",
			func(r *EmployeeRequest) *string {
				if r.PersonalInfo == nil || r.PersonalInfo.Address == nil {
					return nil
				}
				return r.PersonalInfo.Address.PostalCode
			},
			checkPostalCode),
		stringRule(required, "personalInfo.birthDate",
			func(r *EmployeeRequest) *string { return personalField(r, func(p *PersonalInfoPayload) *string { return p.BirthDate }) },
			checkBirthDate),
		stringRule(required, "jobInfo.title",
			func(r *EmployeeRequest) *string { return jobField(r, func(j *JobInfoPayload) *string { return j.Title }) },
			checkTitle),
		stringRule(required, "jobInfo.department",
			func(r *EmployeeRequest) *string { return jobField(r, func(j *JobInfoPayload) *string { return j.Department }) },
			checkDepartment),
		stringRule(required, "jobInfo.startDate",
			func(r *EmployeeRequest) *string { return jobField(r, func(j *JobInfoPayload) *string { return j.StartDate }) },
			checkStartDate),
		salaryRule(required),
		stringRule(required, "jobInfo.employmentType",
			func(r *EmployeeRequest) *string { return jobField(r, func(j *JobInfoPayload) *string { return j.EmploymentType }) },
			checkEmploymentType),
		stringRule(false, "status",
			func(r *EmployeeRequest) *string { return r.Status },
			checkStatus),
		internSalaryRule,
	}
}

func personalField(r *EmployeeRequest, pick func(*PersonalInfoPayload) *string) *string {
	if r.PersonalInfo == nil {
		return nil
	}
	return pick(r.PersonalInfo)
}

func jobField(r *EmployeeRequest, pick func(*JobInfoPayload) *string) *string {
	if r.JobInfo == nil {
		return nil
	}
	return pick(r.JobInfo)
}

// stringRule zorunluluk + şekil kontrolünü tek kurala bağlar.
func stringRule(required bool, field string, pick func(*EmployeeRequest) *string, check func(string) string) rule {
	return func(r *EmployeeRequest) *FieldError {
		val := pick(r)
		if val == nil {
			if required {
				return &FieldError{Field: field, Message: "Bu alan zorunlu", Value: nil}
			}
			return nil
		}
		if msg := check(*val); msg != "" {
			return &FieldError{Field: field, Message: msg, Value: *val}
		}
		return nil
	}
}

func salaryRule(required bool) rule {
	return func(r *EmployeeRequest) *FieldError {
		if r.JobInfo == nil || r.JobInfo.Salary == nil {
			if required {
				return &FieldError{Field: "jobInfo.salary", Message: "Bu alan zorunlu", Value: nil}
			}
			return nil
		}
		salary := *r.JobInfo.Salary
		if salary < 0 || salary > maxSalary {
			return &FieldError{
				Field:   "jobInfo.salary",
				Message: "Maaş 0 ile 10.000.000 arasında olmalı",
				Value:   salary,
			}
		}
		return nil
	}
}

// Cross-field kural: stajyer maaşı 50.000'i aşamaz.
func internSalaryRule(r *EmployeeRequest) *FieldError {
	if r.JobInfo == nil || r.JobInfo.EmploymentType == nil || r.JobInfo.Salary == nil {
		return nil
	}
	if models.EmploymentType(*r.JobInfo.EmploymentType) == models.EmploymentIntern && *r.JobInfo.Salary > internSalaryCap {
		return &FieldError{
			Field:   "jobInfo.salary",
			Message: "Stajyer maaşı 50.000'i aşamaz",
			Value:   *r.JobInfo.Salary,
		}
	}
	return nil
}

func checkName(label string) func(string) string {
	return func(s string) string {
		if !namePattern.MatchString(s) {
			return label + " 2-50 karakter olmalı ve sadece harf içermeli"
		}
		return ""
	}
}

func checkEmail(s string) string {
	if len(s) > 100 || !emailPattern.MatchString(s) {
		return "Geçerli bir email adresi girin"
	}
	return ""
}

func checkPhone(s string) string {
	if s == "" {
		return ""
	}
	if !phonePattern.MatchString(s) {
		return "Geçerli bir telefon numarası girin"
	}
	return ""
}

func checkPostalCode(s string) string {
	if s == "" {
		return ""
	}
	if !postalPattern.MatchString(s) {
		return "Geçerli bir posta kodu girin"
	}
	return ""
}

func checkBirthDate(s string) string {
	t, ok := parseDate(s)
	if !ok {
		return "Tarih formatı YYYY-MM-DD olmalı"
	}
	now := time.Now()
	if t.After(now) {
		return "Doğum tarihi gelecekte olamaz"
	}
	age := ageAt(t, now)
	if age < minAge || age > maxAge {
		return fmt.Sprintf("Yaş %d ile %d arasında olmalı", minAge, maxAge)
	}
	return ""
}

func checkStartDate(s string) string {
	t, ok := parseDate(s)
	if !ok {
		return "Tarih formatı YYYY-MM-DD olmalı"
	}
	if t.After(time.Now().AddDate(1, 0, 0)) {
		return "İşe başlama tarihi en fazla 1 yıl sonrası olabilir"
	}
	return ""
}

func checkTitle(s string) string {
	n := len(strings.TrimSpace(s))
	if n < 2 || n > 100 {
		return "Ünvan 2-100 karakter olmalı"
	}
	return ""
}

func checkDepartment(s string) string {
	if !models.ValidDepartment(models.Department(s)) {
		return "Geçersiz departman"
	}
	return ""
}

func checkEmploymentType(s string) string {
	if !models.ValidEmploymentType(models.EmploymentType(s)) {
		return "Geçersiz çalışma tipi"
	}
	return ""
}

func checkStatus(s string) string {
	if !models.ValidStatus(models.EmployeeStatus(s)) {
		return "Geçersiz durum"
	}
	return ""
}

func ageAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}
