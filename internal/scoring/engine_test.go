// internal/scoring/engine_test.go
package scoring

import (
	"sync"
	"testing"

	"msme-lender-platform/internal/common/logger"
	"msme-lender-platform/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestEngine_Evaluate(t *testing.T) {
	engine := NewEngine(Options{}, logger.NewTestLogger(t))
	broken := flatLender("broken", 1)
	broken.BankStatement.Available = 0

	ev := engine.Evaluate(models.Application{CreditScore: 710}, []models.LenderConfig{lender1(), lender1(), broken})

	assert.Len(t, ev.Offers, 2)
	assert.Equal(t, []string{lender1().ID}, ev.DuplicateIDs)
	assert.Len(t, ev.Skipped, 1)
	assert.Equal(t, DefaultOptions().Currency, engine.Options().Currency)
	assert.Equal(t, 5, engine.Options().MaxOffers)
}

func TestEngine_ZeroOptionsKeepMinimumScore(t *testing.T) {
	engine := NewEngine(Options{}, logger.NewTestLogger(t))
	lenders := []models.LenderConfig{
		flatLender("exactly-ten", 0.5),
		flatLender("eleven", 0.55),
		flatLender("five", 0.25),
	}

	offers := engine.ComputeOffers(models.Application{}, lenders)

	assert.Equal(t, []string{"eleven"}, offerIDs(offers))
	assert.Equal(t, 10.0, engine.Options().MinScore)
}

func TestEngine_ConcurrentUse(t *testing.T) {
	engine := NewEngine(DefaultOptions(), logger.NewNoOpLogger())
	lenders := []models.LenderConfig{lender1(), flatLender("a", 1.1), flatLender("b", 0.7)}
	app := models.Application{CreditScore: 740, MonthlyTransaction: 80000, Documents: allRequiredDocs()}
	want := engine.ComputeOffers(app, lenders)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, engine.ComputeOffers(app, lenders))
		}()
	}
	wg.Wait()
}
