package bot_monitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"whale-tracker/internal/clients_api/whalefeed"
	"whale-tracker/internal/filters"
	"whale-tracker/internal/infra/log"
	"whale-tracker/internal/store"
)

// SwapSource supplies the latest swap batch each cycle.
type SwapSource interface {
	GetSwaps(ctx context.Context, since int64) ([]*whalefeed.Swap, error)
}

// UserSource lists the subscribers to fan notifications out to.
type UserSource interface {
	GetAllUsers(ctx context.Context) ([]store.User, error)
}

// FilterSource loads a user's filter rows.
type FilterSource interface {
	GetUserFilters(ctx context.Context, telegramID int64) ([]store.FilterRecord, error)
}

// Dispatcher drives the notification loop: every interval it pulls a swap
// batch, loads the user list, and runs each swap through the decision
// engine per user.
type Dispatcher struct {
	feed     SwapSource
	users    UserSource
	filters  FilterSource
	engine   *filters.Engine
	oracle   filters.Oracle
	sender   Sender
	interval time.Duration
}

func NewDispatcher(feed SwapSource, users UserSource, filterSource FilterSource, engine *filters.Engine, oracle filters.Oracle, sender Sender, interval time.Duration) *Dispatcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Dispatcher{
		feed:     feed,
		users:    users,
		filters:  filterSource,
		engine:   engine,
		oracle:   oracle,
		sender:   sender,
		interval: interval,
	}
}

// Run blocks until ctx is cancelled. Cycles execute inline on the ticker
// goroutine, so a slow cycle simply delays the next tick; cycles never
// overlap.
func (d *Dispatcher) Run(ctx context.Context) {
	log.LogInfo("Starting notification dispatcher", zap.Duration("interval", d.interval))

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.LogInfo("Notification dispatcher stopped")
			return
		case <-ticker.C:
			d.RunCycle(ctx)
		}
	}
}

// RunCycle performs one batch pass. The feed is asked for its full recent
// window every time; the processed set keeps re-delivered swaps from
// notifying twice. Failures degrade to a no-op cycle; per-user and
// per-swap errors never abort the rest of the batch.
func (d *Dispatcher) RunCycle(ctx context.Context) {
	swaps, err := d.feed.GetSwaps(ctx, 0)
	if err != nil {
		log.LogError("Failed to fetch swap batch", zap.Error(err))
		return
	}
	if len(swaps) == 0 {
		return
	}

	users, err := d.users.GetAllUsers(ctx)
	if err != nil {
		log.LogError("Failed to load users", zap.Error(err))
		return
	}

	log.LogInfo("Processing swap batch",
		zap.Int("swaps", len(swaps)),
		zap.Int("users", len(users)))

	for _, user := range users {
		d.processUser(ctx, user, swaps)
	}
}

// processUser normalizes the user's filters once for the whole batch, then
// evaluates every swap against them.
func (d *Dispatcher) processUser(ctx context.Context, user store.User, swaps []*whalefeed.Swap) {
	rows, err := d.filters.GetUserFilters(ctx, user.TelegramID)
	if err != nil {
		log.LogError("Failed to load user filters",
			zap.Int64("telegram_id", user.TelegramID),
			zap.Error(err))
		return
	}
	config := filters.Normalize(rows)
	if !config.NotificationsEnabled {
		return
	}

	for _, swap := range swaps {
		if !d.engine.ShouldNotify(ctx, swap, config) {
			continue
		}

		isBuy := d.engine.IsBuy(swap)
		relevant := d.engine.RelevantLeg(swap)
		usdValue := d.engine.SwapValueUSD(ctx, swap)

		var marketCap float64
		if relevant != nil {
			marketCap = d.oracle.TokenData(ctx, relevant.Mint, legDisplaySymbol(relevant)).MarketCap
		}

		message := FormatNotification(swap, isBuy, relevant, usdValue, marketCap)
		if err := d.sender.SendMarkdown(user.TelegramID, message); err != nil {
			log.LogError("Failed to send notification",
				zap.Int64("telegram_id", user.TelegramID),
				zap.String("swap_id", swap.Identity()),
				zap.Error(err))
			continue
		}

		log.LogInfo("Sent whale notification",
			zap.Int64("telegram_id", user.TelegramID),
			zap.String("swap_id", swap.Identity()))
	}
}
