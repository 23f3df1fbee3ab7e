package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/IlazCode/GigaChatBot/internal/bot"
	"github.com/IlazCode/GigaChatBot/internal/gigachat"
	"github.com/IlazCode/GigaChatBot/internal/history"
	"github.com/IlazCode/GigaChatBot/internal/logutil"
	"github.com/IlazCode/GigaChatBot/internal/telegram"
)

const telegramBaseURL = "https://api.telegram.org"

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(viper.GetString("telegram.bot_token"))
			if token == "" {
				return fmt.Errorf("missing telegram.bot_token (set via --telegram-bot-token or %s_TELEGRAM_BOT_TOKEN)", envPrefix)
			}
			authKey := strings.TrimSpace(viper.GetString("gigachat.auth_key"))
			if authKey == "" {
				return fmt.Errorf("missing gigachat.auth_key (set via --gigachat-auth-key or %s_GIGACHAT_AUTH_KEY)", envPrefix)
			}

			allowed := make(map[int64]bool)
			for _, s := range viper.GetStringSlice("telegram.allowed_user_ids") {
				s = strings.TrimSpace(s)
				if s == "" {
					continue
				}
				id, err := strconv.ParseInt(s, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid telegram.allowed_user_ids entry %q: %w", s, err)
				}
				allowed[id] = true
			}
			if len(allowed) == 0 {
				return fmt.Errorf("telegram.allowed_user_ids must name at least one user")
			}

			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			opts := []gigachat.Option{
				gigachat.WithScope(viper.GetString("gigachat.scope")),
				gigachat.WithModel(viper.GetString("gigachat.model")),
				gigachat.WithTemperature(viper.GetFloat64("gigachat.temperature")),
			}
			if u := strings.TrimSpace(viper.GetString("gigachat.oauth_url")); u != "" {
				opts = append(opts, gigachat.WithOAuthURL(u))
			}
			if u := strings.TrimSpace(viper.GetString("gigachat.api_base")); u != "" {
				opts = append(opts, gigachat.WithAPIBase(u))
			}
			if viper.GetBool("gigachat.insecure_skip_verify") {
				opts = append(opts, gigachat.WithInsecureTLS())
			}
			if d := viper.GetDuration("gigachat.request_timeout"); d > 0 {
				opts = append(opts, gigachat.WithRequestTimeout(d))
			}
			chatClient, err := gigachat.NewClient(authKey, opts...)
			if err != nil {
				return err
			}

			store, err := history.NewStore(viper.GetString("history.dir"))
			if err != nil {
				return err
			}

			pollTimeout := viper.GetDuration("telegram.poll_timeout")
			if pollTimeout <= 0 {
				pollTimeout = 30 * time.Second
			}
			taskTimeout := viper.GetDuration("telegram.task_timeout")
			if taskTimeout <= 0 {
				taskTimeout = 2 * time.Minute
			}
			maxConc := viper.GetInt("telegram.max_concurrency")
			if maxConc <= 0 {
				maxConc = 3
			}
			sem := make(chan struct{}, maxConc)

			httpClient := &http.Client{Timeout: 60 * time.Second}
			api := telegram.New(httpClient, telegramBaseURL, token)

			handler := bot.NewHandler(chatClient, store, api, allowed, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			me, err := waitForBot(ctx, api, logger)
			if err != nil {
				return err
			}

			logger.Info("telegram_start",
				"bot_username", me.Username,
				"bot_id", me.ID,
				"poll_timeout", pollTimeout.String(),
				"task_timeout", taskTimeout.String(),
				"max_concurrency", maxConc,
				"allowed_users", len(allowed),
			)

			var (
				wg     sync.WaitGroup
				offset int64
			)
			for {
				updates, nextOffset, err := api.GetUpdates(ctx, offset, pollTimeout)
				if err != nil {
					if ctx.Err() != nil {
						break
					}
					if !telegram.IsPollTimeoutError(err) {
						logger.Warn("telegram_get_updates_error", "error", err.Error())
						time.Sleep(1 * time.Second)
					}
					continue
				}
				offset = nextOffset

				for _, u := range updates {
					msg := u.Message
					if msg == nil || msg.Chat == nil || msg.From == nil || msg.From.IsBot {
						continue
					}
					text := strings.TrimSpace(msg.Text)
					if text == "" {
						continue
					}

					in := bot.Incoming{
						ChatID:    msg.Chat.ID,
						UserID:    msg.From.ID,
						MessageID: msg.MessageID,
						Text:      text,
					}
					logger.Info("telegram_task_enqueued",
						"chat_id", in.ChatID,
						"user_id", in.UserID,
						"from", telegram.DisplayName(msg.From),
					)

					wg.Add(1)
					go func(in bot.Incoming) {
						defer wg.Done()
						sem <- struct{}{}
						defer func() { <-sem }()

						taskCtx, cancel := context.WithTimeout(context.Background(), taskTimeout)
						defer cancel()
						if err := handler.Handle(taskCtx, in); err != nil {
							logger.Warn("telegram_task_error",
								"chat_id", in.ChatID,
								"user_id", in.UserID,
								"error", err.Error(),
							)
						}
					}(in)
				}

				if ctx.Err() != nil {
					break
				}
			}

			logger.Info("telegram_stop")
			wg.Wait()
			return nil
		},
	}

	cmd.Flags().String("telegram-bot-token", "", "Telegram bot token.")
	cmd.Flags().StringArray("telegram-allowed-user-id", nil, "Allowed Telegram user id(s) (repeatable).")
	cmd.Flags().Duration("telegram-poll-timeout", 30*time.Second, "Long polling timeout for getUpdates.")
	cmd.Flags().Duration("telegram-task-timeout", 2*time.Minute, "Per-message processing timeout.")
	cmd.Flags().Int("telegram-max-concurrency", 3, "Max messages processed concurrently.")
	cmd.Flags().String("gigachat-auth-key", "", "GigaChat authorization key for OAuth.")
	cmd.Flags().String("gigachat-model", "", "GigaChat model name.")
	cmd.Flags().String("history-dir", "", "Directory for per-user history files.")

	_ = viper.BindPFlag("telegram.bot_token", cmd.Flags().Lookup("telegram-bot-token"))
	_ = viper.BindPFlag("telegram.allowed_user_ids", cmd.Flags().Lookup("telegram-allowed-user-id"))
	_ = viper.BindPFlag("telegram.poll_timeout", cmd.Flags().Lookup("telegram-poll-timeout"))
	_ = viper.BindPFlag("telegram.task_timeout", cmd.Flags().Lookup("telegram-task-timeout"))
	_ = viper.BindPFlag("telegram.max_concurrency", cmd.Flags().Lookup("telegram-max-concurrency"))
	_ = viper.BindPFlag("gigachat.auth_key", cmd.Flags().Lookup("gigachat-auth-key"))
	_ = viper.BindPFlag("gigachat.model", cmd.Flags().Lookup("gigachat-model"))
	_ = viper.BindPFlag("history.dir", cmd.Flags().Lookup("history-dir"))

	return cmd
}

// waitForBot retries getMe until Telegram answers or the context ends, so
// the bot survives starting before the network is up.
func waitForBot(ctx context.Context, api *telegram.API, logger *slog.Logger) (*telegram.User, error) {
	for {
		me, err := api.GetMe(ctx)
		if err == nil {
			return me, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("telegram_get_me_error", "error", err.Error())
		select {
		case <-time.After(2 * time.Second):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
