package employee

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"personel-backend/internal/audit"
	"personel-backend/internal/auth"
	"personel-backend/internal/database"
	"personel-backend/internal/logger"
	"personel-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var employeeIDPattern = regexp.MustCompile(`^EMP[0-9]{4}$`)

const maxPageLimit = 100

// ----------------------------------------
// RESPONSE DTO'LARI
// ----------------------------------------

type AddressResponse struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type PersonalInfoResponse struct {
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone"`
	BirthDate string          `json:"birthDate"`
	Address   AddressResponse `json:"address"`
}

type JobInfoResponse struct {
	Title          string  `json:"title"`
	Department     string  `json:"department"`
	Manager        *string `json:"manager"`
	StartDate      string  `json:"startDate"`
	Salary         float64 `json:"salary"`
	EmploymentType string  `json:"employmentType"`
}

type EmployeeResponse struct {
	ID           uint                 `json:"id"`
	EmployeeID   string               `json:"employeeId"`
	PersonalInfo PersonalInfoResponse `json:"personalInfo"`
	JobInfo      JobInfoResponse      `json:"jobInfo"`
	Status       string               `json:"status"`
	CreatedBy    uint                 `json:"createdBy"`
	UpdatedBy    uint                 `json:"updatedBy"`
	CreatedAt    string               `json:"createdAt"`
	UpdatedAt    string               `json:"updatedAt"`
}

type PaginationResponse struct {
	CurrentPage    int   `json:"currentPage"`
	TotalPages     int   `json:"totalPages"`
	TotalEmployees int64 `json:"totalEmployees"`
	HasNextPage    bool  `json:"hasNextPage"`
	HasPrevPage    bool  `json:"hasPrevPage"`
}

func toResponse(e *models.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:         e.ID,
		EmployeeID: e.EmployeeID,
		PersonalInfo: PersonalInfoResponse{
			FirstName: e.FirstName,
			LastName:  e.LastName,
			Email:     e.Email,
			Phone:     e.Phone,
			BirthDate: e.BirthDate.Format(dateLayout),
			Address: AddressResponse{
				Street:     e.Street,
				City:       e.City,
				PostalCode: e.PostalCode,
				Country:    e.Country,
			},
		},
		JobInfo: JobInfoResponse{
			Title:          e.Title,
			Department:     string(e.Department),
			Manager:        e.ManagerID,
			StartDate:      e.StartDate.Format(dateLayout),
			Salary:         e.Salary,
			EmploymentType: string(e.EmploymentType),
		},
		Status:    string(e.Status),
		CreatedBy: e.CreatedByID,
		UpdatedBy: e.UpdatedByID,
		CreatedAt: e.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt: e.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

// ----------------------------------------
// LİSTELEME
// GET /api/employees?page&limit&department&status&sortBy&sortOrder&search
// ----------------------------------------

// Sıralama alanı allow-list: API adı -> kolon
var sortColumns = map[string]string{
	"employeeId": "employee_id",
	"firstName":  "first_name",
	"lastName":   "last_name",
	"email":      "email",
	"department": "department",
	"title":      "title",
	"salary":     "salary",
	"startDate":  "start_date",
	"status":     "status",
	"createdAt":  "created_at",
}

func ListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := c.QueryInt("page", 1)
		if page < 1 {
			page = 1
		}
		limit := c.QueryInt("limit", 10)
		if limit < 1 {
			limit = 10
		}
		if limit > maxPageLimit {
			limit = maxPageLimit
		}

		dbq := database.DB.Model(&models.Employee{})

		if dept := c.Query("department"); dept != "" {
			dbq = dbq.Where("department = ?", dept)
		}
		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			q := "%" + strings.ToLower(search) + "%"
			dbq = dbq.Where(
				"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(employee_id) LIKE ?",
				q, q, q, q,
			)
		}

		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Çalışanlar listelenemedi")
		}

		column, ok := sortColumns[c.Query("sortBy")]
		if !ok {
			column = "created_at"
		}
		direction := "ASC"
		if strings.EqualFold(c.Query("sortOrder", "asc"), "desc") {
			direction = "DESC"
		}

		var employees []models.Employee
		if err := dbq.
			Order(column + " " + direction).
			Offset((page - 1) * limit).
			Limit(limit).
			Find(&employees).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Çalışanlar listelenemedi")
		}

		totalPages := int((total + int64(limit) - 1) / int64(limit))

		res := make([]EmployeeResponse, 0, len(employees))
		for i := range employees {
			res = append(res, toResponse(&employees[i]))
		}

		return c.JSON(fiber.Map{
			"employees": res,
			"pagination": PaginationResponse{
				CurrentPage:    page,
				TotalPages:     totalPages,
				TotalEmployees: total,
				HasNextPage:    page < totalPages,
				HasPrevPage:    page > 1 && total > 0,
			},
		})
	}
}

// ----------------------------------------
// TEKİL KAYIT
// GET /api/employees/:id
// ----------------------------------------

func GetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if !employeeIDPattern.MatchString(id) {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz çalışan ID formatı")
		}

		var emp models.Employee
		if err := database.DB.First(&emp, "employee_id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Çalışan bulunamadı")
		}

		return c.JSON(toResponse(&emp))
	}
}

// ----------------------------------------
// OLUŞTURMA
// POST /api/employees
// Pipeline: sanitize -> validate -> yönetici kontrolü -> email benzersizliği
// -> ID ataması -> persist -> audit
// ----------------------------------------

func CreateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, actorName := auth.ActorInfo(c)
		if actorID == nil {
			return fiber.NewError(fiber.StatusForbidden, "Kullanıcı bilgisi alınamadı")
		}

		req, payload, err := parseBody(c)
		if err != nil {
			return err
		}

		if errs := ValidateCreate(req); len(errs) > 0 {
			return validationFailed(c, errs)
		}

		// Yönetici ataması (varsa)
		managerID := requestManager(req)
		if managerID != nil {
			explicitID := ""
			if req.EmployeeID != nil {
				explicitID = *req.EmployeeID
			}
			if err := ValidateManagerAssignment(gormLookup{database.DB}, explicitID, *managerID); err != nil {
				return managerAssignmentError(err)
			}
		}

		email := strings.ToLower(strings.TrimSpace(*req.PersonalInfo.Email))

		// Email benzersizliği (race yine de persist'te yakalanır)
		var count int64
		if err := database.DB.Model(&models.Employee{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Çalışan oluşturulamadı")
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Bu email zaten kayıtlı")
		}

		// ID ataması: açık id geldiyse şekli doğru ve boşta olmalı,
		// yoksa mevcut en büyük id'den sıradaki üretilir
		employeeID := ""
		if req.EmployeeID != nil && *req.EmployeeID != "" {
			if !employeeIDPattern.MatchString(*req.EmployeeID) {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz çalışan ID formatı")
			}
			var idCount int64
			if err := database.DB.Model(&models.Employee{}).Where("employee_id = ?", *req.EmployeeID).Count(&idCount).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Çalışan oluşturulamadı")
			}
			if idCount > 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Bu çalışan ID zaten kullanımda")
			}
			employeeID = *req.EmployeeID
		} else {
			employeeID, err = nextEmployeeID(database.DB)
			if errors.Is(err, errIDSpaceExhausted) {
				return fiber.NewError(fiber.StatusInternalServerError, "Çalışan ID havuzu doldu, yeni kayıt açılamıyor")
			}
			if err != nil {
				logger.Log.Errorf("Sıradaki çalışan ID üretilemedi: %v", err)
				return fiber.NewError(fiber.StatusInternalServerError, "Çalışan oluşturulamadı")
			}
		}

		birthDate, _ := parseDate(*req.PersonalInfo.BirthDate)
		startDate, _ := parseDate(*req.JobInfo.StartDate)

		emp := models.Employee{
			EmployeeID:     employeeID,
			FirstName:      *req.PersonalInfo.FirstName,
			LastName:       *req.PersonalInfo.LastName,
			Email:          email,
			BirthDate:      birthDate,
			Title:          *req.JobInfo.Title,
			Department:     models.Department(*req.JobInfo.Department),
			ManagerID:      managerID,
			StartDate:      startDate,
			Salary:         *req.JobInfo.Salary,
			EmploymentType: models.EmploymentType(*req.JobInfo.EmploymentType),
			Status:         models.StatusActive,
			CreatedByID:    *actorID,
			UpdatedByID:    *actorID,
		}
		if req.PersonalInfo.Phone != nil {
			emp.Phone = *req.PersonalInfo.Phone
		}
		if addr := req.PersonalInfo.Address; addr != nil {
			if addr.Street != nil {
				emp.Street = *addr.Street
			}
			if addr.City != nil {
				emp.City = *addr.City
			}
			if addr.PostalCode != nil {
				emp.PostalCode = *addr.PostalCode
			}
			if addr.Country != nil {
				emp.Country = *addr.Country
			}
		}
		if req.Status != nil {
			emp.Status = models.EmployeeStatus(*req.Status)
		}

		if err := database.DB.Create(&emp).Error; err != nil {
			if msg, ok := duplicateMessage(err); ok {
				// Eşzamanlı create yarışı: unique constraint persist'te patladı
				return fiber.NewError(fiber.StatusBadRequest, msg)
			}
			logger.Log.Errorf("Çalışan kaydedilemedi: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Çalışan oluşturulamadı")
		}

		audit.Record(audit.Entry{
			UserID:    actorID,
			UserName:  actorName,
			Action:    models.AuditActionCreateEmployee,
			TargetID:  emp.EmployeeID,
			Payload:   payload,
			IP:        c.IP(),
			UserAgent: c.Get("User-Agent"),
		})

		return c.Status(fiber.StatusCreated).JSON(toResponse(&emp))
	}
}

// ----------------------------------------
// GÜNCELLEME
// PUT /api/employees/:id
// Kısmi update: sadece gönderilen alanlar değişir
// ----------------------------------------

func UpdateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, actorName := auth.ActorInfo(c)
		if actorID == nil {
			return fiber.NewError(fiber.StatusForbidden, "Kullanıcı bilgisi alınamadı")
		}

		id := c.Params("id")
		if !employeeIDPattern.MatchString(id) {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz çalışan ID formatı")
		}

		var emp models.Employee
		if err := database.DB.First(&emp, "employee_id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Çalışan bulunamadı")
		}

		req, payload, err := parseBody(c)
		if err != nil {
			return err
		}

		if errs := ValidateUpdate(req); len(errs) > 0 {
			return validationFailed(c, errs)
		}

		// Yönetici alanı gönderildiyse atama kontrolü ("" referansı kaldırır)
		if req.JobInfo != nil && req.JobInfo.Manager != nil && *req.JobInfo.Manager != "" {
			if err := ValidateManagerAssignment(gormLookup{database.DB}, emp.EmployeeID, *req.JobInfo.Manager); err != nil {
				return managerAssignmentError(err)
			}
		}

		// Email değişiyorsa kendisi hariç çakışma kontrolü
		if req.PersonalInfo != nil && req.PersonalInfo.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*req.PersonalInfo.Email))
			var count int64
			if err := database.DB.Model(&models.Employee{}).
				Where("email = ? AND employee_id <> ?", email, emp.EmployeeID).
				Count(&count).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Çalışan güncellenemedi")
			}
			if count > 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Bu email zaten kayıtlı")
			}
		}

		applyUpdate(&emp, req)
		emp.UpdatedByID = *actorID
		emp.UpdatedAt = time.Now()

		if err := database.DB.Save(&emp).Error; err != nil {
			if msg, ok := duplicateMessage(err); ok {
				return fiber.NewError(fiber.StatusBadRequest, msg)
			}
			logger.Log.Errorf("Çalışan güncellenemedi: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Çalışan güncellenemedi")
		}

		audit.Record(audit.Entry{
			UserID:    actorID,
			UserName:  actorName,
			Action:    models.AuditActionUpdateEmployee,
			TargetID:  emp.EmployeeID,
			Payload:   payload,
			IP:        c.IP(),
			UserAgent: c.Get("User-Agent"),
		})

		return c.JSON(toResponse(&emp))
	}
}

// ----------------------------------------
// SİLME
// DELETE /api/employees/:id
// Başkasının yöneticisi olan çalışan silinemez
// ----------------------------------------

func DeleteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, actorName := auth.ActorInfo(c)
		if actorID == nil {
			return fiber.NewError(fiber.StatusForbidden, "Kullanıcı bilgisi alınamadı")
		}

		id := c.Params("id")
		if !employeeIDPattern.MatchString(id) {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz çalışan ID formatı")
		}

		var emp models.Employee
		if err := database.DB.First(&emp, "employee_id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Çalışan bulunamadı")
		}

		var dependents int64
		if err := database.DB.Model(&models.Employee{}).
			Where("manager_id = ?", emp.EmployeeID).
			Count(&dependents).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Çalışan silinemedi")
		}
		if dependents > 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message":    fmt.Sprintf("Bu çalışan %d kişinin yöneticisi, önce bağlı çalışanları taşıyın", dependents),
				"dependents": dependents,
			})
		}

		if err := database.DB.Delete(&emp).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Çalışan silinemedi")
		}

		audit.Record(audit.Entry{
			UserID:    actorID,
			UserName:  actorName,
			Action:    models.AuditActionDeleteEmployee,
			TargetID:  emp.EmployeeID,
			IP:        c.IP(),
			UserAgent: c.Get("User-Agent"),
		})

		return c.JSON(fiber.Map{
			"message": "Çalışan silindi",
			"deleted": fiber.Map{
				"id":         emp.ID,
				"employeeId": emp.EmployeeID,
				"fullName":   emp.FullName(),
			},
		})
	}
}

// ----------------------------------------
// İSTATİSTİKLER
// GET /api/employees/stats
// ----------------------------------------

type countRow struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

func StatsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var total int64
		if err := database.DB.Model(&models.Employee{}).Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İstatistikler hesaplanamadı")
		}

		byStatus, err := groupCount("status")
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İstatistikler hesaplanamadı")
		}
		byDepartment, err := groupCount("department")
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İstatistikler hesaplanamadı")
		}
		byEmploymentType, err := groupCount("employment_type")
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İstatistikler hesaplanamadı")
		}

		// Son 30 günde işe başlayanlar
		var recentHires int64
		since := time.Now().AddDate(0, 0, -30)
		if err := database.DB.Model(&models.Employee{}).
			Where("start_date >= ?", since).
			Count(&recentHires).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İstatistikler hesaplanamadı")
		}

		return c.JSON(fiber.Map{
			"totalEmployees":   total,
			"byStatus":         byStatus,
			"byDepartment":     byDepartment,
			"byEmploymentType": byEmploymentType,
			"recentHires":      recentHires,
		})
	}
}

func groupCount(column string) (map[string]int64, error) {
	var rows []countRow
	if err := database.DB.Model(&models.Employee{}).
		Select(column + " AS value, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Value] = r.Count
	}
	return out, nil
}

// ----------------------------------------
// Yardımcılar
// ----------------------------------------

func validationFailed(c *fiber.Ctx, errs []FieldError) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Doğrulama hatası",
		"errors":  errs,
	})
}

func requestManager(req *EmployeeRequest) *string {
	if req.JobInfo == nil || req.JobInfo.Manager == nil || *req.JobInfo.Manager == "" {
		return nil
	}
	m := *req.JobInfo.Manager
	return &m
}

func managerAssignmentError(err error) error {
	switch {
	case errors.Is(err, ErrManagerNotFound),
		errors.Is(err, ErrManagerInactive),
		errors.Is(err, ErrSelfReference),
		errors.Is(err, ErrCyclicHierarchy):
		return fiber.NewError(fiber.StatusBadRequest, "Geçersiz yönetici ataması: "+err.Error())
	}
	logger.Log.Errorf("Yönetici kontrolü başarısız: %v", err)
	return fiber.NewError(fiber.StatusInternalServerError, "Yönetici kontrolü yapılamadı")
}

func applyUpdate(emp *models.Employee, req *EmployeeRequest) {
	if p := req.PersonalInfo; p != nil {
		if p.FirstName != nil {
			emp.FirstName = *p.FirstName
		}
		if p.LastName != nil {
			emp.LastName = *p.LastName
		}
		if p.Email != nil {
			emp.Email = strings.ToLower(strings.TrimSpace(*p.Email))
		}
		if p.Phone != nil {
			emp.Phone = *p.Phone
		}
		if p.BirthDate != nil {
			if t, ok := parseDate(*p.BirthDate); ok {
				emp.BirthDate = t
			}
		}
		if a := p.Address; a != nil {
			if a.Street != nil {
				emp.Street = *a.Street
			}
			if a.City != nil {
				emp.City = *a.City
			}
			if a.PostalCode != nil {
				emp.PostalCode = *a.PostalCode
			}
			if a.Country != nil {
				emp.Country = *a.Country
			}
		}
	}
	if j := req.JobInfo; j != nil {
		if j.Title != nil {
			emp.Title = *j.Title
		}
		if j.Department != nil {
			emp.Department = models.Department(*j.Department)
		}
		if j.Manager != nil {
			if *j.Manager == "" {
				emp.ManagerID = nil
			} else {
				m := *j.Manager
				emp.ManagerID = &m
			}
		}
		if j.StartDate != nil {
			if t, ok := parseDate(*j.StartDate); ok {
				emp.StartDate = t
			}
		}
		if j.Salary != nil {
			emp.Salary = *j.Salary
		}
		if j.EmploymentType != nil {
			emp.EmploymentType = models.EmploymentType(*j.EmploymentType)
		}
	}
	if req.Status != nil {
		// Durum geçişleri serbest: terminated -> active dahil, ek kural yok
		emp.Status = models.EmployeeStatus(*req.Status)
	}
}

// errIDSpaceExhausted EMP9999'dan sonra üretilecek id kalmadığında döner.
var errIDSpaceExhausted = errors.New("çalışan ID havuzu doldu")

// nextEmployeeID mevcut en büyük id'ye bakarak sıradakini üretir.
// Sabit genişlik sayesinde lexicografik sıralama sayısal sıralamayla aynı.
// 4 haneyi aşan bir id hem formatı bozar hem de employeeIDPattern'den
// geçemediği için erişilemez olurdu; EMP9999'dan sonra hata döner.
func nextEmployeeID(db *gorm.DB) (string, error) {
	var last string
	if err := db.Model(&models.Employee{}).
		Select("employee_id").
		Order("employee_id DESC").
		Limit(1).
		Scan(&last).Error; err != nil {
		return "", err
	}

	if last == "" {
		return "EMP0001", nil
	}

	n, err := strconv.Atoi(strings.TrimPrefix(last, "EMP"))
	if err != nil {
		return "", fmt.Errorf("mevcut çalışan ID çözümlenemedi (%q): %w", last, err)
	}
	if n >= 9999 {
		return "", errIDSpaceExhausted
	}
	return fmt.Sprintf("EMP%04d", n+1), nil
}

// duplicateMessage store'un unique constraint hatasını hangi kolonun
// patladığına göre kullanıcı mesajına çevirir. Postgres'te pgconn hata kodu,
// testlerdeki sqlite sürücüsünde mesaj içeriği üzerinden ayırt edilir.
func duplicateMessage(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != "23505" {
			return "", false
		}
		if strings.Contains(pgErr.ConstraintName, "email") {
			return "Bu email zaten kayıtlı", true
		}
		return "Bu çalışan ID zaten kullanımda", true
	}

	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "unique constraint") && !strings.Contains(msg, "duplicate") {
		return "", false
	}
	if strings.Contains(msg, "email") {
		return "Bu email zaten kayıtlı", true
	}
	return "Bu çalışan ID zaten kullanımda", true
}
