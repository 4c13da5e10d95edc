// Package plans реализует каталог тарифных планов. Каталог загружается
// один раз при старте процесса из JSON-файла и дальше используется
// только для чтения. Каталог передаётся зависимостям явно, глобального
// состояния нет.
package plans

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// FreePlanKey — ключ бесплатного плана, который выдаётся клиенту
// автоматически при отсутствии активной подписки.
const FreePlanKey = "free"

// ContentKindFeature — вид позиции плана, открывающей доступ к фиче.
// Позиции других видов (например, квоты кредитов) в список фич не входят.
const ContentKindFeature = "feature"

// ErrPlanNotFound возвращается при поиске неизвестного ключа плана.
// Для вызывающего кода это ошибка данных, а не пользователя.
var ErrPlanNotFound = errors.New("plan not found in catalog")

// Content описывает одну позицию плана: код и вид.
type Content struct {
	ID   string `json:"id"`   // Код позиции (код фичи или квоты)
	Type string `json:"type"` // Вид позиции: feature, credit и т.п.
}

// Plan описывает один тарифный план каталога.
type Plan struct {
	Value              float64   `json:"value"`               // Стоимость плана
	DurationDays       *int      `json:"duration,omitempty"`  // Длительность в днях, nil — бессрочно
	Type               string    `json:"type"`                // Тип создаваемой записи: SIG или OTO
	SignatureExclusive bool      `json:"signature_exclusive"` // Взаимоисключающая подписка
	PurchasedContent   []Content `json:"purchased_content"`   // Позиции плана
}

// Features возвращает коды позиций плана вида "feature".
func (p *Plan) Features() []string {
	var result []string
	for _, c := range p.PurchasedContent {
		if c.Type == ContentKindFeature {
			result = append(result, c.ID)
		}
	}
	return result
}

// Catalog хранит загруженные планы по ключу.
type Catalog struct {
	plans map[string]Plan
}

// Load читает каталог планов из JSON-файла. Вызывается один раз
// при старте приложения.
func Load(path string) (*Catalog, error) {
	const op = "plans.Load"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var plans map[string]Plan
	if err := json.Unmarshal(data, &plans); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, ok := plans[FreePlanKey]; !ok {
		return nil, fmt.Errorf("%s: catalog has no %q plan", op, FreePlanKey)
	}
	return &Catalog{plans: plans}, nil
}

// New создаёт каталог из готовой карты планов. Используется в тестах.
func New(plans map[string]Plan) *Catalog {
	return &Catalog{plans: plans}
}

// Lookup возвращает план по ключу или ErrPlanNotFound.
func (c *Catalog) Lookup(planKey string) (*Plan, error) {
	const op = "plans.Lookup"
	plan, ok := c.plans[planKey]
	if !ok {
		return nil, fmt.Errorf("%s: %q: %w", op, planKey, ErrPlanNotFound)
	}
	return &plan, nil
}
