package employee

import (
	"encoding/json"
	"time"

	"personel-backend/internal/sanitize"

	"github.com/gofiber/fiber/v2"
)

// İstek gövdesi, API'nin dış şekliyle (personalInfo/jobInfo iç içe) eşleşir.
// Tüm alanlar pointer: update'te "gönderilmeyen alan dokunulmaz" kuralı
// ancak böyle ayırt edilebiliyor.

type AddressPayload struct {
	Street     *string `json:"street"`
	City       *string `json:"city"`
	PostalCode *string `json:"postalCode"`
	Country    *string `json:"country"`
}

type PersonalInfoPayload struct {
	FirstName *string         `json:"firstName"`
	LastName  *string         `json:"lastName"`
	Email     *string         `json:"email"`
	Phone     *string         `json:"phone"`
	BirthDate *string         `json:"birthDate"` // "2006-01-02"
	Address   *AddressPayload `json:"address"`
}

type JobInfoPayload struct {
	Title      *string `json:"title"`
	Department *string `json:"department"`
	// Başka bir çalışanın employeeId'si; "" göndermek referansı kaldırır
	Manager        *string  `json:"manager"`
	StartDate      *string  `json:"startDate"`
	Salary         *float64 `json:"salary"`
	EmploymentType *string  `json:"employmentType"`
}

type EmployeeRequest struct {
	EmployeeID   *string              `json:"employeeId"`
	PersonalInfo *PersonalInfoPayload `json:"personalInfo"`
	JobInfo      *JobInfoPayload      `json:"jobInfo"`
	Status       *string              `json:"status"`
}

// parseBody gövdeyi çözer, sanitize eder ve DTO'ya aktarır. Sanitize edilmiş
// ham map audit payload'u olarak da kullanılır.
func parseBody(c *fiber.Ctx) (*EmployeeRequest, map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
	}

	sanitize.Payload(raw)

	clean, err := json.Marshal(raw)
	if err != nil {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
	}

	var req EmployeeRequest
	if err := json.Unmarshal(clean, &req); err != nil {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
	}

	return &req, raw, nil
}

const dateLayout = "2006-01-02"

func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, s)
	return t, err == nil
}
