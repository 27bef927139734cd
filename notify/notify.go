// Package notify delivers price alerts to the console and, when SMTP is
// configured, by email.
package notify

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Notifier delivers one alert message.
type Notifier interface {
	Notify(subject, body string) error
}

// Dispatcher fans a message out to every configured notifier. Delivery
// failures are logged, not propagated: a broken SMTP server must not
// fail a price check.
type Dispatcher struct {
	notifiers []Notifier
}

func NewDispatcher(notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{notifiers: notifiers}
}

func (d *Dispatcher) Notify(subject, body string) {
	for _, n := range d.notifiers {
		if err := n.Notify(subject, body); err != nil {
			log.Error().Err(err).Str("subject", subject).Msg("notification delivery failed")
		}
	}
}

// ConsoleNotifier writes alerts to the log.
type ConsoleNotifier struct{}

func (ConsoleNotifier) Notify(subject, body string) error {
	log.Info().Str("subject", subject).Msg(body)
	return nil
}

// FormatBRL renders a decimal amount in Brazilian currency style:
// R$ 1.234,56.
func FormatBRL(value decimal.Decimal) string {
	fixed := value.StringFixed(2)

	intPart, fracPart, _ := strings.Cut(fixed, ".")
	negative := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := "R$ " + strings.Join(groups, ".") + "," + fracPart
	if negative {
		out = "R$ -" + strings.Join(groups, ".") + "," + fracPart
	}
	return out
}
