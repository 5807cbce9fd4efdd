package services

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/disgo/webhook"
	"github.com/disgoorg/snowflake/v2"

	"github.com/tcgwatch/pricewatch/pricewatch"
	"github.com/tcgwatch/pricewatch/pricewatch/scheduler"
)

const (
	colorSuccess = 0x2ECC71
	colorIdle    = 0x95A5A6
)

type embedSender interface {
	CreateEmbeds(embeds []discord.Embed, opts ...rest.RequestOpt) (*discord.Message, error)
}

// RunNotifier posts a summary of each price refresh run to a Discord
// webhook.
type RunNotifier struct {
	sender embedSender
	now    func() time.Time
}

// NewRunNotifier returns nil when the webhook is not configured.
func NewRunNotifier(cfg pricewatch.NotifyConfig) (*RunNotifier, error) {
	if cfg.WebhookID == "" || cfg.WebhookToken == "" {
		return nil, nil
	}

	id, err := snowflake.Parse(cfg.WebhookID)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook id: %w", err)
	}

	return &RunNotifier{sender: webhook.New(id, cfg.WebhookToken), now: time.Now}, nil
}

func (n *RunNotifier) NotifyRun(ctx context.Context, report *scheduler.Report) error {
	_, err := n.sender.CreateEmbeds([]discord.Embed{n.embed(report)}, rest.WithCtx(ctx))
	return err
}

func (n *RunNotifier) embed(report *scheduler.Report) discord.Embed {
	color := colorSuccess
	if report.Updated == 0 {
		color = colorIdle
	}

	return discord.NewEmbedBuilder().
		SetTitle("Price refresh finished").
		SetDescription(report.Message).
		SetColor(color).
		AddField("Updated", fmt.Sprintf("%d", report.Updated), true).
		AddField("Attempted", fmt.Sprintf("%d", report.Total), true).
		SetFooterText("run " + report.RunID).
		SetTimestamp(n.now()).
		Build()
}
