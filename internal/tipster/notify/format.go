package notify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rwtips/tipster/internal/pkg/models"
)

const divider = "━━━━━━━━━━━━━━━━━━━━"

// bet365LinkTemplate builds the in-play deep link from the bookmaker's event
// id. The id comes straight from the live feed; events without one get no
// link line at all.
const bet365LinkTemplate = "https://www.bet365.bet.br/?#/IP/EV%s"

// confidenceEmoji grades a confidence score for display.
func confidenceEmoji(confidence float64) string {
	switch {
	case confidence >= 85:
		return "🟢"
	case confidence >= 75:
		return "🟡"
	default:
		return "🟠"
	}
}

// TipMessage renders the full HTML tip notification: league, strategy,
// confidence, live state, both players' form highlights and the bookmaker
// deep link.
func TipMessage(event *models.LiveEvent, tip *models.Tip, home, away *models.PlayerFormProfile) string {
	var b strings.Builder

	b.WriteString(divider + "\n")
	b.WriteString("🎯 <b>OPORTUNIDADE DETECTADA</b>\n")
	b.WriteString(divider + "\n\n")

	b.WriteString(fmt.Sprintf("🏆 <b>%s</b>\n", tip.Format))
	b.WriteString(fmt.Sprintf("💎 <b>%s</b>\n", tip.Label))
	b.WriteString(fmt.Sprintf("%s <b>Confiança: %.1f%%</b>\n\n", confidenceEmoji(tip.Confidence), tip.Confidence))

	b.WriteString(fmt.Sprintf("⏱ <b>Tempo:</b> %s | 📊 <b>Placar:</b> %s\n", event.TimerFormatted, event.Scoreboard()))
	b.WriteString(fmt.Sprintf("🎮 <b>%s</b> vs <b>%s</b>\n\n", event.HomePlayer, event.AwayPlayer))

	if home != nil && away != nil {
		b.WriteString(divider + "\n")
		b.WriteString(fmt.Sprintf("📈 <b>ANÁLISE - ÚLTIMOS %d JOGOS</b>\n", home.GamesAnalyzed))
		b.WriteString(divider + "\n\n")

		writeProfile(&b, "🏠", event.HomePlayer, home)
		writeProfile(&b, "✈️", event.AwayPlayer, away)

		avgBTTS := (home.BTTSPct + away.BTTSPct) / 2
		b.WriteString(fmt.Sprintf("🔥 <b>BTTS Médio:</b> %.0f%%\n\n", avgBTTS))
	}

	if event.ExternalEventID != "" {
		link := fmt.Sprintf(bet365LinkTemplate, event.ExternalEventID)
		b.WriteString(divider + "\n")
		b.WriteString(fmt.Sprintf("🎲 <a href='%s'><b>APOSTAR NA BET365</b></a>\n", link))
		b.WriteString(divider + "\n")
	}

	return b.String()
}

func writeProfile(b *strings.Builder, emoji, player string, p *models.PlayerFormProfile) {
	b.WriteString(fmt.Sprintf("%s <b>%s</b>\n", emoji, player))
	b.WriteString(fmt.Sprintf("├ HT: +0.5 (%.0f%%) • +1.5 (%.0f%%)\n", p.HTOver05Pct, p.HTOver15Pct))
	b.WriteString(fmt.Sprintf("├ FT: Média %.1f gols/jogo\n", p.AvgGoalsScoredFT))
	b.WriteString(fmt.Sprintf("└ Gols +3: %.0f%% dos jogos\n\n", p.Scored3PlusPct))
}

// SettlementText appends the outcome marker row to the original tip message
// for an edit-in-place update.
func SettlementText(tip *models.Tip) string {
	var marker string
	switch tip.Status {
	case models.StatusGreen:
		marker = "✅✅✅✅✅"
	case models.StatusRed:
		marker = "❌❌❌❌❌"
	case models.StatusRefund:
		marker = "♻️♻️♻️♻️♻️"
	default:
		return tip.MessageText
	}
	return tip.MessageText + "\n" + marker
}

// DailySummary renders the aggregate scoreboard for one day. Empty when no
// tip has been decided yet, so callers can skip the send entirely.
func DailySummary(c models.TipCounts) string {
	if c.Total() == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n<b>👑 RW TIPS - FIFA 🎮</b>\n\n")
	b.WriteString(fmt.Sprintf("<b>✅ Green [%d]</b>\n", c.Green))
	b.WriteString(fmt.Sprintf("<b>❌ Red [%d]</b>\n", c.Red))
	b.WriteString(fmt.Sprintf("<b>♻️ Push [%d]</b>\n", c.Refund))
	b.WriteString(fmt.Sprintf("📊 <i>Taxa de acerto: %.1f%%</i>\n\n", c.HitRate()))
	return b.String()
}

// HourlySummary renders today's per-league scoreboard. Only leagues with at
// least one decided tip appear; an empty string means nothing to send.
func HourlySummary(byFormat map[models.LeagueFormat]models.TipCounts) string {
	formats := make([]models.LeagueFormat, 0, len(byFormat))
	for f, c := range byFormat {
		if c.Total() > 0 {
			formats = append(formats, f)
		}
	}
	if len(formats) == 0 {
		return ""
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i].String() < formats[j].String() })

	var b strings.Builder
	b.WriteString("📊 <b>RESUMO POR LIGA (HOJE)</b>\n" + divider + "\n\n")
	for _, f := range formats {
		c := byFormat[f]
		b.WriteString(fmt.Sprintf("🏆 <b>LIGA: %s</b>\n", f))
		b.WriteString(fmt.Sprintf("💠 TOTAL: %d TIPS\n", c.Total()))
		b.WriteString(fmt.Sprintf("✅ GREEN: %d (%.0f%%)\n", c.Green, c.HitRate()))
		b.WriteString(fmt.Sprintf("❌ RED: %d\n\n", c.Red))
	}
	b.WriteString(divider)
	return b.String()
}

// BaselineTable renders the per-league baseline percentages as a monospace
// table. Formats appear in display order; formats without a baseline are
// omitted.
func BaselineTable(set models.BaselineSet) string {
	if len(set) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("📊 <b>ANÁLISE DE LIGAS</b> (Últimos 5 jogos)\n")
	b.WriteString("<pre>")
	b.WriteString(fmt.Sprintf("%-16s %5s %5s %5s %5s %5s %5s\n",
		"LIGA", "HT.5", "HT1.5", "HTBT", "FT1.5", "FT2.5", "FTBT"))
	for _, f := range models.AllFormats() {
		base, ok := set[f]
		if !ok {
			continue
		}
		b.WriteString(fmt.Sprintf("%-16s %4d%% %4d%% %4d%% %4d%% %4d%% %4d%%\n",
			f, base.HTOver05, base.HTOver15, base.HTBTTS,
			base.FTOver15, base.FTOver25, base.FTBTTS))
	}
	b.WriteString("</pre>\n")
	b.WriteString("<i>🔴&lt;48% 🟠48-77% 🟡78-94% 🟢95%+</i>")
	return b.String()
}
