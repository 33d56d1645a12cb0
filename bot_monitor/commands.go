package bot_monitor

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"whale-tracker/internal/charts"
	"whale-tracker/internal/filters"
	"whale-tracker/internal/infra/log"
	"whale-tracker/internal/store"
)

// callbackAction enumerates every inline-keyboard action the bot handles.
type callbackAction int

const (
	actionUnknown callbackAction = iota
	actionToggleMonitorMode
	actionToggleNotifications
	actionAddWhitelist
	actionAddMinPurchase
	actionAddMaxMarketCap
	actionAddBlacklist
	actionAddWhaleBlacklist
	actionViewFilters
	actionClearAllFilters
	actionBackToMenu
	actionDeleteFilter
)

// callbackRequest is the decoded form of a callback query payload.
type callbackRequest struct {
	action     callbackAction
	filterType string // set for actionDeleteFilter
	index      int    // position within the type's rows
}

// staticCallbacks maps fixed payloads to their action.
var staticCallbacks = map[string]callbackAction{
	"toggle_monitor_mode":  actionToggleMonitorMode,
	"toggle_notifications": actionToggleNotifications,
	"add_token":            actionAddWhitelist,
	"add_min_purchase":     actionAddMinPurchase,
	"add_max_market_cap":   actionAddMaxMarketCap,
	"add_blacklist":        actionAddBlacklist,
	"add_whale_blacklist":  actionAddWhaleBlacklist,
	"view_filters":         actionViewFilters,
	"clear_all_filters":    actionClearAllFilters,
	"back_to_menu":         actionBackToMenu,
}

// shortTypes abbreviates filter types inside delete-callback payloads,
// which Telegram caps at 64 bytes.
var shortTypes = map[string]string{
	store.FilterTokenWhitelist: "tw",
	store.FilterMinPurchase:    "mp",
	store.FilterMaxMarketCap:   "mc",
	store.FilterTokenBlacklist: "tb",
	store.FilterWhaleBlacklist: "wb",
}

var longTypes = map[string]string{
	"tw": store.FilterTokenWhitelist,
	"mp": store.FilterMinPurchase,
	"mc": store.FilterMaxMarketCap,
	"tb": store.FilterTokenBlacklist,
	"wb": store.FilterWhaleBlacklist,
}

// parseCallback decodes a callback payload. Delete payloads look like
// "del_<shortType>_<index>".
func parseCallback(data string) (callbackRequest, bool) {
	if action, ok := staticCallbacks[data]; ok {
		return callbackRequest{action: action}, true
	}

	if rest, ok := strings.CutPrefix(data, "del_"); ok {
		parts := strings.SplitN(rest, "_", 2)
		if len(parts) != 2 {
			return callbackRequest{}, false
		}
		filterType, ok := longTypes[parts[0]]
		if !ok {
			return callbackRequest{}, false
		}
		index, err := strconv.Atoi(parts[1])
		if err != nil || index < 0 {
			return callbackRequest{}, false
		}
		return callbackRequest{action: actionDeleteFilter, filterType: filterType, index: index}, true
	}

	return callbackRequest{}, false
}

// filterSections defines the display order and headings of /filters.
var filterSections = []struct {
	filterType string
	title      string
}{
	{store.FilterTokenWhitelist, "✅ Token Whitelist"},
	{store.FilterMinPurchase, "💰 Minimum Purchase"},
	{store.FilterMaxMarketCap, "📊 Maximum Market Cap"},
	{store.FilterTokenBlacklist, "🚫 Token Blacklist"},
	{store.FilterWhaleBlacklist, "🐋 Whale Blacklist"},
}

// validateThreshold checks user input for min-purchase and max-market-cap
// values: a positive whole number, no decimals.
func validateThreshold(text string) (int64, bool) {
	if strings.Contains(text, ".") {
		return 0, false
	}
	v, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// CommandHandler owns the bot's interactive surface: commands, the inline
// settings menu, and the filter-input conversation state.
type CommandHandler struct {
	bot          *tgbotapi.BotAPI
	transport    *TelegramTransport
	users        *store.UserRepo
	filterRepo   *store.FilterRepo
	swaps        *store.SwapRepo
	pollInterval time.Duration

	mu            sync.Mutex
	awaitingInput map[int64]string // chat id -> filter type being entered
}

func NewCommandHandler(bot *tgbotapi.BotAPI, transport *TelegramTransport, users *store.UserRepo, filterRepo *store.FilterRepo, swaps *store.SwapRepo, pollInterval time.Duration) *CommandHandler {
	return &CommandHandler{
		bot:           bot,
		transport:     transport,
		users:         users,
		filterRepo:    filterRepo,
		swaps:         swaps,
		pollInterval:  pollInterval,
		awaitingInput: make(map[int64]string),
	}
}

// Run consumes the bot's update stream until ctx is cancelled.
func (h *CommandHandler) Run(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := h.bot.GetUpdatesChan(updateConfig)

	log.LogSuccess("Bot command handler running", zap.String("bot", h.bot.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			h.bot.StopReceivingUpdates()
			log.LogInfo("Bot command handler stopped")
			return
		case update := <-updates:
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *CommandHandler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	}
}

func (h *CommandHandler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			h.handleStart(ctx, chatID, msg.From)
		case "menu":
			h.showMainMenu(ctx, chatID)
		case "filters":
			h.showFilters(ctx, chatID)
		case "stats":
			h.handleStats(ctx, chatID)
		case "help":
			h.sendText(chatID, h.helpText())
		}
		return
	}

	h.handleFilterInput(ctx, chatID, msg.Text)
}

func (h *CommandHandler) handleStart(ctx context.Context, chatID int64, from *tgbotapi.User) {
	username := ""
	if from != nil {
		username = from.UserName
	}
	if err := h.users.AddUser(ctx, chatID, username); err != nil {
		log.LogError("Failed to register user", zap.Int64("chat_id", chatID), zap.Error(err))
		h.sendText(chatID, "❌ Something went wrong. Please try /start again.")
		return
	}

	welcome := `🐋 Welcome to Whale Tracker Bot!

I monitor Solana whale transactions and send personalized alerts.

⚠️ Bot starts OFF by default
Use /menu to:
• Turn the bot ON 🔔
• Choose: All Tokens or Token Filter mode
• Configure your filters

Get started with /menu!`
	h.sendText(chatID, welcome)
}

func (h *CommandHandler) helpText() string {
	return fmt.Sprintf(`🐋 Whale Tracker Bot Help

Commands:
/start - Initialize your account
/menu - Configure filters and settings
/filters - View your current filters
/stats - Whale activity chart for the last 24h
/help - Show this help message

Filter Types:
• Token Whitelist - Track specific tokens only
• Minimum Purchase - Set USD threshold for alerts
• Maximum Market Cap - Filter out high market cap tokens
• Token Blacklist - Ignore specific tokens
• Whale Blacklist - Block specific whale addresses

The bot checks for whale transactions every %.0f seconds and sends alerts when they match your filters.`,
		h.pollInterval.Seconds())
}

// handleStats renders and sends the hourly activity chart.
func (h *CommandHandler) handleStats(ctx context.Context, chatID int64) {
	now := time.Now()
	since := now.Add(-24 * time.Hour).UnixMilli()

	counts, err := h.swaps.HourlyCounts(ctx, since)
	if err != nil {
		log.LogError("Failed to load hourly counts", zap.Error(err))
		h.sendText(chatID, "❌ Could not load stats right now. Try again later.")
		return
	}

	png, err := charts.RenderHourlyActivity(counts, now)
	if err != nil {
		log.LogError("Failed to render activity chart", zap.Error(err))
		h.sendText(chatID, "❌ Could not render the chart right now.")
		return
	}

	if err := h.transport.SendPhoto(chatID, "whale_activity.png", png, "🐋 Whale activity, last 24 hours"); err != nil {
		log.LogError("Failed to send stats chart", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *CommandHandler) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID

	request, ok := parseCallback(query.Data)
	if !ok {
		h.answerCallback(query.ID, "Unknown action")
		return
	}

	switch request.action {
	case actionToggleMonitorMode:
		h.toggleMonitorMode(ctx, chatID)
	case actionToggleNotifications:
		h.toggleNotifications(ctx, chatID)
	case actionAddWhitelist:
		h.promptInput(chatID, store.FilterTokenWhitelist, "Enter token symbol or mint address to whitelist:")
	case actionAddMinPurchase:
		h.promptInput(chatID, store.FilterMinPurchase, "Enter minimum purchase amount in USD:")
	case actionAddMaxMarketCap:
		h.promptInput(chatID, store.FilterMaxMarketCap, "Enter maximum market cap in USD:")
	case actionAddBlacklist:
		h.promptInput(chatID, store.FilterTokenBlacklist, "Enter token symbol or mint address to blacklist:")
	case actionAddWhaleBlacklist:
		h.promptInput(chatID, store.FilterWhaleBlacklist, "Enter whale address to blacklist:")
	case actionViewFilters:
		h.showFilters(ctx, chatID)
	case actionClearAllFilters:
		h.clearAllFilters(ctx, chatID)
	case actionBackToMenu:
		h.showMainMenu(ctx, chatID)
	case actionDeleteFilter:
		h.deleteFilter(ctx, chatID, request.filterType, request.index)
	}

	h.answerCallback(query.ID, "")
}

func (h *CommandHandler) toggleMonitorMode(ctx context.Context, chatID int64) {
	config, err := h.loadConfig(ctx, chatID)
	if err != nil {
		h.sendText(chatID, "❌ Error updating settings. Please try again.")
		return
	}
	newValue := !config.MonitorAll

	if err := h.filterRepo.ReplaceFilter(ctx, chatID, store.FilterMonitorAll, strconv.FormatBool(newValue)); err != nil {
		log.LogError("Failed to toggle monitor mode", zap.Int64("chat_id", chatID), zap.Error(err))
		h.sendText(chatID, "❌ Error updating settings. Please try again.")
		return
	}

	mode := "Token Filter"
	if newValue {
		mode = "All Tokens"
	}
	h.sendText(chatID, "✅ Monitor mode changed to: "+mode)
	h.showMainMenu(ctx, chatID)
}

func (h *CommandHandler) toggleNotifications(ctx context.Context, chatID int64) {
	config, err := h.loadConfig(ctx, chatID)
	if err != nil {
		h.sendText(chatID, "❌ Error updating settings. Please try again.")
		return
	}
	newValue := !config.NotificationsEnabled

	if err := h.filterRepo.ReplaceFilter(ctx, chatID, store.FilterNotificationsEnabled, strconv.FormatBool(newValue)); err != nil {
		log.LogError("Failed to toggle notifications", zap.Int64("chat_id", chatID), zap.Error(err))
		h.sendText(chatID, "❌ Error updating settings. Please try again.")
		return
	}

	if newValue {
		h.sendText(chatID, "🔔 Notifications enabled!")
	} else {
		h.sendText(chatID, "🔕 Notifications disabled!")
	}
	h.showMainMenu(ctx, chatID)
}

func (h *CommandHandler) clearAllFilters(ctx context.Context, chatID int64) {
	if err := h.filterRepo.ClearAllFilters(ctx, chatID); err != nil {
		log.LogError("Failed to clear filters", zap.Int64("chat_id", chatID), zap.Error(err))
		h.sendText(chatID, "❌ Error clearing filters. Please try again.")
		return
	}
	h.disableNotifications(ctx, chatID)
	h.sendText(chatID, "✅ All filters cleared!\n\n⚠️ Notifications have been automatically turned OFF. Use /menu to turn them back ON when you're ready.")
}

func (h *CommandHandler) deleteFilter(ctx context.Context, chatID int64, filterType string, index int) {
	rows, err := h.filterRepo.GetUserFilters(ctx, chatID)
	if err != nil {
		log.LogError("Failed to load filters for deletion", zap.Int64("chat_id", chatID), zap.Error(err))
		h.sendText(chatID, "❌ Error removing filter. Please try again.")
		return
	}

	var typeRows []store.FilterRecord
	for _, row := range rows {
		if row.FilterType == filterType {
			typeRows = append(typeRows, row)
		}
	}

	if index >= len(typeRows) {
		h.sendText(chatID, "❌ Filter not found. Please try again.")
		return
	}

	target := typeRows[index]
	if err := h.filterRepo.RemoveFilter(ctx, chatID, filterType, target.FilterValue); err != nil {
		log.LogError("Failed to remove filter", zap.Int64("chat_id", chatID), zap.Error(err))
		h.sendText(chatID, "❌ Error removing filter. Please try again.")
		return
	}

	h.disableNotifications(ctx, chatID)
	h.sendText(chatID, fmt.Sprintf("✅ Filter removed: %s\n\n⚠️ Notifications have been automatically turned OFF due to filter changes. Use /menu to turn them back ON when you're done configuring.", target.FilterValue))
	h.showFilters(ctx, chatID)
}

func (h *CommandHandler) promptInput(chatID int64, filterType, prompt string) {
	h.mu.Lock()
	h.awaitingInput[chatID] = filterType
	h.mu.Unlock()

	msg := tgbotapi.NewMessage(chatID, prompt)
	msg.ReplyMarkup = tgbotapi.ForceReply{ForceReply: true}
	if _, err := h.bot.Send(msg); err != nil {
		log.LogError("Failed to send input prompt", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// handleFilterInput consumes a plain-text message as the value for the
// filter type the user was prompted for. Messages arriving without a
// pending prompt are ignored.
func (h *CommandHandler) handleFilterInput(ctx context.Context, chatID int64, text string) {
	h.mu.Lock()
	filterType, ok := h.awaitingInput[chatID]
	if ok {
		delete(h.awaitingInput, chatID)
	}
	h.mu.Unlock()
	if !ok {
		return
	}

	text = strings.TrimSpace(text)

	switch filterType {
	case store.FilterMinPurchase, store.FilterMaxMarketCap:
		value, valid := validateThreshold(text)
		if !valid {
			h.sendText(chatID, "❌ Please enter a valid positive whole number (no decimals).")
			return
		}
		if err := h.filterRepo.ReplaceFilter(ctx, chatID, filterType, strconv.FormatInt(value, 10)); err != nil {
			log.LogError("Failed to set threshold filter", zap.Int64("chat_id", chatID), zap.Error(err))
			h.sendText(chatID, "❌ Error adding filter. Please try again.")
			return
		}

	case store.FilterTokenWhitelist, store.FilterTokenBlacklist, store.FilterWhaleBlacklist:
		count, err := h.filterRepo.CountFilters(ctx, chatID, filterType)
		if err != nil {
			log.LogError("Failed to count filters", zap.Int64("chat_id", chatID), zap.Error(err))
			h.sendText(chatID, "❌ Error adding filter. Please try again.")
			return
		}
		if count >= store.MaxEntriesPerList {
			h.sendText(chatID, fmt.Sprintf("❌ Maximum %d items allowed for this filter type. Clear some first.", store.MaxEntriesPerList))
			return
		}
		if err := h.filterRepo.AddFilter(ctx, chatID, filterType, text); err != nil {
			log.LogError("Failed to add filter", zap.Int64("chat_id", chatID), zap.Error(err))
			h.sendText(chatID, "❌ Error adding filter. Please try again.")
			return
		}

	default:
		return
	}

	h.disableNotifications(ctx, chatID)
	h.sendText(chatID, "✅ Filter added successfully!\n\n⚠️ Notifications have been automatically turned OFF due to filter changes. Use /menu to turn them back ON when you're done configuring.")
}

// disableNotifications forces the opt-in switch off; every filter mutation
// calls this so a user reviews their setup before alerts resume.
func (h *CommandHandler) disableNotifications(ctx context.Context, chatID int64) {
	if err := h.filterRepo.ReplaceFilter(ctx, chatID, store.FilterNotificationsEnabled, "false"); err != nil {
		log.LogError("Failed to disable notifications", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *CommandHandler) loadConfig(ctx context.Context, chatID int64) (filters.Config, error) {
	rows, err := h.filterRepo.GetUserFilters(ctx, chatID)
	if err != nil {
		log.LogError("Failed to load user filters", zap.Int64("chat_id", chatID), zap.Error(err))
		return filters.Config{}, err
	}
	return filters.Normalize(rows), nil
}

func (h *CommandHandler) showMainMenu(ctx context.Context, chatID int64) {
	config, err := h.loadConfig(ctx, chatID)
	if err != nil {
		h.sendText(chatID, "❌ Error loading settings. Please try again.")
		return
	}

	modeButton := "🔵 Monitor All Tokens"
	if config.MonitorAll {
		modeButton = "⚪ Token Filter"
	}
	notifyButton := "🔔 Turn ON"
	if config.NotificationsEnabled {
		notifyButton = "🔕 Turn OFF"
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(modeButton, "toggle_monitor_mode")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(notifyButton, "toggle_notifications")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Add Token Whitelist", "add_token")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 Set Min Purchase", "add_min_purchase")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Set Max Market Cap", "add_max_market_cap")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚫 Add Token Blacklist", "add_blacklist")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🐋 Add Whale Blacklist", "add_whale_blacklist")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔍 View Filters", "view_filters"),
			tgbotapi.NewInlineKeyboardButtonData("🗑️ Clear All", "clear_all_filters")),
	)

	mode := "Token Filter"
	if config.MonitorAll {
		mode = "All Tokens"
	}
	status := "OFF 🔕"
	if config.NotificationsEnabled {
		status = "ON 🔔"
	}

	menuText := fmt.Sprintf(`🐋 Whale Tracker Settings

*Current Status:*
• Monitor Mode: %s
• Notifications: %s

*How it works:*
• *All Tokens + ON*: Get alerts for all whale transactions (use blacklist to exclude)
• *Token Filter + ON*: Only get alerts for whitelisted tokens
• *OFF*: No notifications (bot is paused)

Choose an option below:`, mode, status)

	if err := h.transport.SendMarkdownWithKeyboard(chatID, menuText, keyboard); err != nil {
		log.LogError("Failed to send menu", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *CommandHandler) showFilters(ctx context.Context, chatID int64) {
	rows, err := h.filterRepo.GetUserFilters(ctx, chatID)
	if err != nil {
		log.LogError("Failed to load filters", zap.Int64("chat_id", chatID), zap.Error(err))
		h.sendText(chatID, "❌ Error loading filters. Please try again.")
		return
	}
	if len(rows) == 0 {
		h.sendText(chatID, "❌ You have no active filters. Use /menu to set up filters.")
		return
	}

	var b strings.Builder
	b.WriteString("🔍 Your Active Filters:\n\n")
	var buttons [][]tgbotapi.InlineKeyboardButton

	for _, section := range filterSections {
		var typeRows []store.FilterRecord
		for _, row := range rows {
			if row.FilterType == section.filterType {
				typeRows = append(typeRows, row)
			}
		}
		if len(typeRows) == 0 {
			continue
		}

		b.WriteString(section.title + ":\n")
		for i, row := range typeRows {
			fmt.Fprintf(&b, "  • %s\n", row.FilterValue)

			short := row.FilterValue
			if len(short) > 8 {
				short = short[:8] + "..."
			}
			payload := fmt.Sprintf("del_%s_%d", shortTypes[section.filterType], i)
			buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("❌ "+short, payload)))
		}
		b.WriteString("\n")
	}

	buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Back to Menu", "back_to_menu")))

	b.WriteString("💡 Tap ❌ to delete individual filters")

	msg := tgbotapi.NewMessage(chatID, b.String())
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	if _, err := h.bot.Send(msg); err != nil {
		log.LogError("Failed to send filters view", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *CommandHandler) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.LogError("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *CommandHandler) answerCallback(callbackID, text string) {
	callback := tgbotapi.NewCallback(callbackID, text)
	if _, err := h.bot.Request(callback); err != nil {
		log.LogDebug("Failed to answer callback query", zap.Error(err))
	}
}
