package telegram

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cast"
	"github.com/zhangjialei/tradebook/internal/models"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/middleware"
)

type Settings struct {
	Token  string
	Client *http.Client
}

type Telegram struct {
	logger   *zap.Logger
	settings Settings
	client   *tele.Bot

	recentTrades func(ctx context.Context, limit int) ([]models.Trade, error)
}

type Option func(telegram *Telegram)

// WithRecentTrades 注册 /recent 指令的数据来源
func WithRecentTrades(f func(ctx context.Context, limit int) ([]models.Trade, error)) Option {
	return func(telegram *Telegram) {
		telegram.recentTrades = f
	}
}

func NewTelegram(logger *zap.Logger, settings Settings, options ...Option) (*Telegram, error) {

	poller := &tele.LongPoller{Timeout: 10 * time.Second}

	userMiddleware := tele.NewMiddlewarePoller(poller, func(u *tele.Update) bool {

		return true
	})

	client, err := tele.NewBot(tele.Settings{
		ParseMode: tele.ModeMarkdown,
		Token:     settings.Token,
		Poller:    userMiddleware,
		Client:    settings.Client,
	})
	if err != nil {
		return nil, err
	}

	client.Use(middleware.AutoRespond())

	err = client.SetCommands([]tele.Command{
		{Text: "/start", Description: "启动机器人"},
		{Text: "/help", Description: "获取帮助信息"},
		{Text: "/recent", Description: "查看最近平仓记录"},
	})
	if err != nil {
		return nil, err
	}

	bot := &Telegram{
		logger:   logger,
		settings: settings,
		client:   client,
	}

	for _, option := range options {
		option(bot)
	}

	return bot, nil
}

func (r *Telegram) Start() {
	r.client.Handle("/start", func(c tele.Context) error {
		return c.Send("交易日志同步通知已开启")
	})
	r.client.Handle("/help", func(c tele.Context) error {
		return c.Send("同步完成或失败时会推送通知，发送 /recent 查看最近平仓记录")
	})
	if r.recentTrades != nil {
		r.client.Handle("/recent", func(c tele.Context) error {
			trades, err := r.recentTrades(context.Background(), 10)
			if err != nil {
				r.logger.Error("failed to load recent trades", zap.Error(err))
				return c.Send("查询失败，请稍后再试")
			}
			return c.Send(RenderRecentTrades(trades))
		})
	}
	go r.client.Start()
}

func (r *Telegram) Notify(chatId, msg string) error {
	_chatId := cast.ToInt(chatId)
	_, err := r.client.Send(tele.ChatID(_chatId), msg, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
	return err
}
