package notify

import (
	"fmt"
	"strings"

	"deolho/models"
)

// TargetReachedMessage describes a product whose current price met its
// target.
func TargetReachedMessage(p *models.Product) (subject, body string) {
	subject = fmt.Sprintf("Preço alvo atingido: %s", p.Title)
	body = fmt.Sprintf("%s está %s (alvo %s).\n%s",
		p.Title,
		FormatBRL(p.CurrentPrice.Decimal),
		FormatBRL(p.TargetPrice),
		p.URL,
	)
	return subject, body
}

// PriceDropMessage describes a drop from the recorded high.
func PriceDropMessage(p *models.Product, dropPercent string) (subject, body string) {
	subject = fmt.Sprintf("Queda de preço: %s", p.Title)
	body = fmt.Sprintf("%s caiu %s%% desde a máxima de %s e agora custa %s.\n%s",
		p.Title,
		dropPercent,
		FormatBRL(p.HighestPrice.Decimal),
		FormatBRL(p.CurrentPrice.Decimal),
		p.URL,
	)
	return subject, body
}

// DealSummaryMessage renders the daily list of statistical deals.
func DealSummaryMessage(deals []models.DealClassification) (subject, body string) {
	subject = fmt.Sprintf("Ofertas do dia: %d produto(s) abaixo de 2 desvios", len(deals))

	var b strings.Builder
	for _, d := range deals {
		fmt.Fprintf(&b, "- %s: %s (limite %s, janela de %d dias)\n",
			d.Title,
			FormatBRL(d.CurrentPrice),
			FormatBRL(d.Threshold),
			d.WindowDays,
		)
	}
	return subject, b.String()
}
