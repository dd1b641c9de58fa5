package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"HoldemCore/config"
	"HoldemCore/internal/game/bot"
	"HoldemCore/internal/game/deck"
	"HoldemCore/internal/game/engine"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD700"))
	winStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#32CD32"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func withTimeout(p engine.DecisionProvider, cfg *config.Config) engine.DecisionProvider {
	if cfg.Server.DecisionTimeout <= 0 {
		return p
	}
	return bot.WithTimeout(p, cfg.Server.DecisionTimeout)
}

// renderSummary 每手一行，最后是筹码榜
func renderSummary(name string, results []*engine.Result, chips map[string]int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s: %d hands", name, len(results))))
	b.WriteString("\n")

	for _, res := range results {
		how := "showdown"
		if res.ByFold {
			how = "fold"
		}

		line := fmt.Sprintf("#%-3d pot %-5d %-8s %-20s %s",
			res.Hand, res.Pot, how, deck.Format(res.Community), strings.Join(res.Winners, ","))
		if best := bestHand(res); best != "" {
			line += " (" + best + ")"
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	ids := make([]string, 0, len(chips))
	for id := range chips {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if chips[ids[i]] != chips[ids[j]] {
			return chips[ids[i]] > chips[ids[j]]
		}
		return ids[i] < ids[j]
	})

	b.WriteString("\n")
	for i, id := range ids {
		row := fmt.Sprintf("%-10s %6d", id, chips[id])
		if i == 0 {
			row = winStyle.Render(row)
		}
		b.WriteString(row)
		if i < len(ids)-1 {
			b.WriteString("\n")
		}
	}

	return boxStyle.Render(b.String())
}

// bestHand describes the winning hand of a showdown
func bestHand(res *engine.Result) string {
	for _, s := range res.Standings {
		for _, w := range res.Winners {
			if s.PlayerID == w {
				return s.Score.String()
			}
		}
	}
	return ""
}
