package employee

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"personel-backend/internal/auth"
	"personel-backend/internal/database"
	"personel-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Test app'i: in-memory sqlite + aktörü Locals'a koyan stub middleware.
// Route'lar main.go'daki sırayla kayıtlı (stats, :id'den önce).
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // in-memory sqlite tek bağlantı ister

	require.NoError(t, database.Migrate(db))
	database.DB = db

	actor := models.User{
		Name:         "Test Admin",
		Email:        "admin@example.com",
		PasswordHash: "x",
		Role:         models.RoleAdmin,
		Active:       true,
	}
	require.NoError(t, db.Create(&actor).Error)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"message": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Beklenmeyen sunucu hatası"})
		},
	})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, actor.ID)
		c.Locals(auth.CtxUserNameKey, actor.Name)
		c.Locals(auth.CtxUserRoleKey, actor.Role)
		return c.Next()
	})

	app.Get("/employees", ListHandler())
	app.Get("/employees/stats", StatsHandler())
	app.Get("/employees/:id", GetHandler())
	app.Post("/employees", CreateHandler())
	app.Put("/employees/:id", UpdateHandler())
	app.Delete("/employees/:id", DeleteHandler())

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

func employeeBody(email string) map[string]any {
	return map[string]any{
		"personalInfo": map[string]any{
			"firstName": "Mehmet",
			"lastName":  "Demir",
			"email":     email,
			"phone":     "+90 532 111 2233",
			"birthDate": "1988-03-20",
			"address": map[string]any{
				"street":     "Atatürk Cad. No:12",
				"city":       "Ankara",
				"postalCode": "06000",
				"country":    "Türkiye",
			},
		},
		"jobInfo": map[string]any{
			"title":          "Backend Geliştirici",
			"department":     "Engineering",
			"startDate":      "2023-06-01",
			"salary":         95000,
			"employmentType": "full-time",
		},
	}
}

func TestCreateEmployeeGeneratesSequentialIDs(t *testing.T) {
	app := setupApp(t)

	code, body := doJSON(t, app, "POST", "/employees", employeeBody("a@example.com"))
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "EMP0001", body["employeeId"])

	code, body = doJSON(t, app, "POST", "/employees", employeeBody("b@example.com"))
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "EMP0002", body["employeeId"])

	// createdBy/updatedBy aktöre set edilir
	assert.Equal(t, float64(1), body["createdBy"])
	assert.Equal(t, float64(1), body["updatedBy"])
}

func TestCreateEmployeeExplicitID(t *testing.T) {
	app := setupApp(t)

	req := employeeBody("a@example.com")
	req["employeeId"] = "EMP0042"
	code, body := doJSON(t, app, "POST", "/employees", req)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "EMP0042", body["employeeId"])

	// Sıradaki otomatik id mevcut en büyükten devam eder
	code, body = doJSON(t, app, "POST", "/employees", employeeBody("b@example.com"))
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "EMP0043", body["employeeId"])

	// Kullanımda olan açık id reddedilir
	req2 := employeeBody("c@example.com")
	req2["employeeId"] = "EMP0042"
	code, body = doJSON(t, app, "POST", "/employees", req2)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["message"], "kullanımda")

	// Bozuk şekilli açık id reddedilir
	req3 := employeeBody("d@example.com")
	req3["employeeId"] = "EMP42"
	code, _ = doJSON(t, app, "POST", "/employees", req3)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCreateEmployeeIDSpaceExhausted(t *testing.T) {
	app := setupApp(t)

	// Havuzun son id'si açık olarak alınır
	req := employeeBody("son@example.com")
	req["employeeId"] = "EMP9999"
	code, _ := doJSON(t, app, "POST", "/employees", req)
	require.Equal(t, http.StatusCreated, code)

	// EMP9999'dan sonra otomatik üretim 4 haneyi aşamayacağı için
	// kayıt açılmaz; EMP10000 gibi erişilemez bir id üretilmemeli
	code, body := doJSON(t, app, "POST", "/employees", employeeBody("tasma@example.com"))
	require.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, body["message"], "havuzu doldu")

	var count int64
	require.NoError(t, database.DB.Model(&models.Employee{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateEmployeeValidationErrorsCollected(t *testing.T) {
	app := setupApp(t)

	code, body := doJSON(t, app, "POST", "/employees", map[string]any{
		"personalInfo": map[string]any{"firstName": "X"},
	})
	require.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, body["message"])

	errs, ok := body["errors"].([]any)
	require.True(t, ok)
	// Tek istekte tüm alan hataları birlikte raporlanır
	assert.Greater(t, len(errs), 5)

	first := errs[0].(map[string]any)
	assert.NotEmpty(t, first["field"])
	assert.NotEmpty(t, first["message"])
}

func TestCreateInternOverSalaryCap(t *testing.T) {
	app := setupApp(t)

	req := employeeBody("stajyer@example.com")
	req["jobInfo"].(map[string]any)["employmentType"] = "intern"
	req["jobInfo"].(map[string]any)["salary"] = 60000

	code, body := doJSON(t, app, "POST", "/employees", req)
	require.Equal(t, http.StatusBadRequest, code)

	errs := body["errors"].([]any)
	require.Len(t, errs, 1)
	fe := errs[0].(map[string]any)
	assert.Equal(t, "jobInfo.salary", fe["field"])
	assert.Contains(t, fe["message"], "50.000")
}

func TestCreateEmployeeDuplicateEmail(t *testing.T) {
	app := setupApp(t)

	code, _ := doJSON(t, app, "POST", "/employees", employeeBody("ayni@example.com"))
	require.Equal(t, http.StatusCreated, code)

	code, body := doJSON(t, app, "POST", "/employees", employeeBody("ayni@example.com"))
	require.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["message"], "email")
}

func TestCreateEmployeeSanitizesInput(t *testing.T) {
	app := setupApp(t)

	req := employeeBody("temiz@example.com")
	req["personalInfo"].(map[string]any)["firstName"] = "  Ali<script>alert(1)</script> "
	req["jobInfo"].(map[string]any)["title"] = "javascript:Mühendis"

	code, body := doJSON(t, app, "POST", "/employees", req)
	require.Equal(t, http.StatusCreated, code)

	personal := body["personalInfo"].(map[string]any)
	assert.Equal(t, "Ali", personal["firstName"])
	job := body["jobInfo"].(map[string]any)
	assert.Equal(t, "Mühendis", job["title"])
}

func TestGetEmployee(t *testing.T) {
	app := setupApp(t)

	code, created := doJSON(t, app, "POST", "/employees", employeeBody("tek@example.com"))
	require.Equal(t, http.StatusCreated, code)

	code, body := doJSON(t, app, "GET", "/employees/"+created["employeeId"].(string), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, created["employeeId"], body["employeeId"])

	// Şekli bozuk id -> 400
	code, _ = doJSON(t, app, "GET", "/employees/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	// Şekli doğru ama olmayan id -> 404
	code, _ = doJSON(t, app, "GET", "/employees/EMP9999", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUpdatePartialLeavesOtherFieldsUntouched(t *testing.T) {
	app := setupApp(t)

	code, created := doJSON(t, app, "POST", "/employees", employeeBody("sabit@example.com"))
	require.Equal(t, http.StatusCreated, code)
	id := created["employeeId"].(string)

	code, body := doJSON(t, app, "PUT", "/employees/"+id, map[string]any{
		"jobInfo": map[string]any{"title": "Kıdemli Geliştirici"},
	})
	require.Equal(t, http.StatusOK, code)

	job := body["jobInfo"].(map[string]any)
	assert.Equal(t, "Kıdemli Geliştirici", job["title"])
	// Gönderilmeyen alanlar aynen durur
	assert.Equal(t, "Engineering", job["department"])
	assert.Equal(t, 95000.0, job["salary"])
	personal := body["personalInfo"].(map[string]any)
	assert.Equal(t, "sabit@example.com", personal["email"])
	assert.Equal(t, "Mehmet", personal["firstName"])
}

func TestUpdateStatusFreeTransitions(t *testing.T) {
	app := setupApp(t)

	code, created := doJSON(t, app, "POST", "/employees", employeeBody("durum@example.com"))
	require.Equal(t, http.StatusCreated, code)
	id := created["employeeId"].(string)

	// terminated -> active dahil her geçiş serbest
	for _, status := range []string{"terminated", "active", "inactive", "active"} {
		code, body := doJSON(t, app, "PUT", "/employees/"+id, map[string]any{"status": status})
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, status, body["status"])
	}
}

func TestUpdateSelfManagerRejected(t *testing.T) {
	app := setupApp(t)

	code, created := doJSON(t, app, "POST", "/employees", employeeBody("kendi@example.com"))
	require.Equal(t, http.StatusCreated, code)
	id := created["employeeId"].(string)

	code, body := doJSON(t, app, "PUT", "/employees/"+id, map[string]any{
		"jobInfo": map[string]any{"manager": id},
	})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["message"], "yönetici ataması")
	assert.Contains(t, body["message"], "kendi")
}

func TestUpdateCyclicHierarchyRejected(t *testing.T) {
	app := setupApp(t)

	// A yöneticisiz, B'nin yöneticisi A; A'ya B'yi atamak döngü
	code, a := doJSON(t, app, "POST", "/employees", employeeBody("a@example.com"))
	require.Equal(t, http.StatusCreated, code)
	aID := a["employeeId"].(string)

	reqB := employeeBody("b@example.com")
	reqB["jobInfo"].(map[string]any)["manager"] = aID
	code, b := doJSON(t, app, "POST", "/employees", reqB)
	require.Equal(t, http.StatusCreated, code)
	bID := b["employeeId"].(string)

	code, body := doJSON(t, app, "PUT", "/employees/"+aID, map[string]any{
		"jobInfo": map[string]any{"manager": bID},
	})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["message"], "döngüsel")
}

func TestUpdateManagerInactiveRejected(t *testing.T) {
	app := setupApp(t)

	code, mgr := doJSON(t, app, "POST", "/employees", employeeBody("pasif@example.com"))
	require.Equal(t, http.StatusCreated, code)
	mgrID := mgr["employeeId"].(string)

	code, _ = doJSON(t, app, "PUT", "/employees/"+mgrID, map[string]any{"status": "terminated"})
	require.Equal(t, http.StatusOK, code)

	code, other := doJSON(t, app, "POST", "/employees", employeeBody("diger@example.com"))
	require.Equal(t, http.StatusCreated, code)

	code, body := doJSON(t, app, "PUT", "/employees/"+other["employeeId"].(string), map[string]any{
		"jobInfo": map[string]any{"manager": mgrID},
	})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["message"], "aktif")
}

func TestDeleteWithDependentsRejected(t *testing.T) {
	app := setupApp(t)

	code, mgr := doJSON(t, app, "POST", "/employees", employeeBody("sef@example.com"))
	require.Equal(t, http.StatusCreated, code)
	mgrID := mgr["employeeId"].(string)

	for i := 0; i < 2; i++ {
		req := employeeBody(fmt.Sprintf("calisan%d@example.com", i))
		req["jobInfo"].(map[string]any)["manager"] = mgrID
		code, _ = doJSON(t, app, "POST", "/employees", req)
		require.Equal(t, http.StatusCreated, code)
	}

	code, body := doJSON(t, app, "DELETE", "/employees/"+mgrID, nil)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, float64(2), body["dependents"])
}

func TestDeleteWithoutDependents(t *testing.T) {
	app := setupApp(t)

	code, created := doJSON(t, app, "POST", "/employees", employeeBody("gidici@example.com"))
	require.Equal(t, http.StatusCreated, code)
	id := created["employeeId"].(string)

	code, body := doJSON(t, app, "DELETE", "/employees/"+id, nil)
	require.Equal(t, http.StatusOK, code)

	deleted := body["deleted"].(map[string]any)
	assert.Equal(t, id, deleted["employeeId"])
	assert.Equal(t, "Mehmet Demir", deleted["fullName"])

	code, _ = doJSON(t, app, "GET", "/employees/"+id, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDeleteAfterManagerReferenceRemoved(t *testing.T) {
	app := setupApp(t)

	code, mgr := doJSON(t, app, "POST", "/employees", employeeBody("sef@example.com"))
	require.Equal(t, http.StatusCreated, code)
	mgrID := mgr["employeeId"].(string)

	req := employeeBody("bagli@example.com")
	req["jobInfo"].(map[string]any)["manager"] = mgrID
	code, dep := doJSON(t, app, "POST", "/employees", req)
	require.Equal(t, http.StatusCreated, code)

	code, _ = doJSON(t, app, "DELETE", "/employees/"+mgrID, nil)
	require.Equal(t, http.StatusBadRequest, code)

	// Referans "" ile kaldırılınca silme serbest
	code, _ = doJSON(t, app, "PUT", "/employees/"+dep["employeeId"].(string), map[string]any{
		"jobInfo": map[string]any{"manager": ""},
	})
	require.Equal(t, http.StatusOK, code)

	code, _ = doJSON(t, app, "DELETE", "/employees/"+mgrID, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestListPagination(t *testing.T) {
	app := setupApp(t)

	for i := 0; i < 15; i++ {
		code, _ := doJSON(t, app, "POST", "/employees", employeeBody(fmt.Sprintf("muh%02d@example.com", i)))
		require.Equal(t, http.StatusCreated, code)
	}

	code, body := doJSON(t, app, "GET", "/employees?department=Engineering&page=2&limit=10&sortBy=employeeId&sortOrder=asc", nil)
	require.Equal(t, http.StatusOK, code)

	employees := body["employees"].([]any)
	assert.Len(t, employees, 5)

	pagination := body["pagination"].(map[string]any)
	assert.Equal(t, float64(2), pagination["currentPage"])
	assert.Equal(t, float64(2), pagination["totalPages"])
	assert.Equal(t, float64(15), pagination["totalEmployees"])
	assert.Equal(t, false, pagination["hasNextPage"])
	assert.Equal(t, true, pagination["hasPrevPage"])
}

func TestListFilterAndSearch(t *testing.T) {
	app := setupApp(t)

	code, _ := doJSON(t, app, "POST", "/employees", employeeBody("bul@example.com"))
	require.Equal(t, http.StatusCreated, code)

	sales := employeeBody("satis@example.com")
	sales["jobInfo"].(map[string]any)["department"] = "Sales"
	sales["personalInfo"].(map[string]any)["firstName"] = "Zeynep"
	code, _ = doJSON(t, app, "POST", "/employees", sales)
	require.Equal(t, http.StatusCreated, code)

	// Departman filtresi
	code, body := doJSON(t, app, "GET", "/employees?department=Sales", nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["employees"].([]any), 1)

	// Arama büyük/küçük harf duyarsız
	code, body = doJSON(t, app, "GET", "/employees?search=ZEYNEP", nil)
	require.Equal(t, http.StatusOK, code)
	found := body["employees"].([]any)
	require.Len(t, found, 1)
	personal := found[0].(map[string]any)["personalInfo"].(map[string]any)
	assert.Equal(t, "Zeynep", personal["firstName"])

	// Limit 100'ü aşamaz: istek patlamaz, sessizce kırpılır
	code, _ = doJSON(t, app, "GET", "/employees?limit=5000", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestStats(t *testing.T) {
	app := setupApp(t)

	code, _ := doJSON(t, app, "POST", "/employees", employeeBody("aktif@example.com"))
	require.Equal(t, http.StatusCreated, code)

	sales := employeeBody("pasif@example.com")
	sales["jobInfo"].(map[string]any)["department"] = "Sales"
	sales["jobInfo"].(map[string]any)["employmentType"] = "contract"
	code, created := doJSON(t, app, "POST", "/employees", sales)
	require.Equal(t, http.StatusCreated, code)

	code, _ = doJSON(t, app, "PUT", "/employees/"+created["employeeId"].(string), map[string]any{"status": "inactive"})
	require.Equal(t, http.StatusOK, code)

	code, body := doJSON(t, app, "GET", "/employees/stats", nil)
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, float64(2), body["totalEmployees"])

	byStatus := body["byStatus"].(map[string]any)
	assert.Equal(t, float64(1), byStatus["active"])
	assert.Equal(t, float64(1), byStatus["inactive"])

	byDept := body["byDepartment"].(map[string]any)
	assert.Equal(t, float64(1), byDept["Engineering"])
	assert.Equal(t, float64(1), byDept["Sales"])

	byType := body["byEmploymentType"].(map[string]any)
	assert.Equal(t, float64(1), byType["full-time"])
	assert.Equal(t, float64(1), byType["contract"])
}

func TestAuditEntryWrittenOnMutations(t *testing.T) {
	app := setupApp(t)

	code, created := doJSON(t, app, "POST", "/employees", employeeBody("iz@example.com"))
	require.Equal(t, http.StatusCreated, code)
	id := created["employeeId"].(string)

	code, _ = doJSON(t, app, "PUT", "/employees/"+id, map[string]any{"status": "inactive"})
	require.Equal(t, http.StatusOK, code)

	code, _ = doJSON(t, app, "DELETE", "/employees/"+id, nil)
	require.Equal(t, http.StatusOK, code)

	var logs []models.AuditLog
	require.NoError(t, database.DB.Order("id asc").Find(&logs).Error)
	require.Len(t, logs, 3)

	assert.Equal(t, models.AuditActionCreateEmployee, logs[0].Action)
	assert.Equal(t, models.AuditActionUpdateEmployee, logs[1].Action)
	assert.Equal(t, models.AuditActionDeleteEmployee, logs[2].Action)

	for _, l := range logs {
		assert.Equal(t, id, l.TargetID)
		require.NotNil(t, l.UserID)
		assert.Equal(t, "Test Admin", l.UserName)
	}

	// Create/update payload taşır, delete taşımaz
	assert.Contains(t, logs[0].Payload, "iz@example.com")
	assert.Contains(t, logs[1].Payload, "inactive")
	assert.Equal(t, "null", logs[2].Payload)
}
