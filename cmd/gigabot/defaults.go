package main

import (
	"time"

	"github.com/spf13/viper"
)

func initViperDefaults() {
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.add_source", false)

	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.allowed_user_ids", []string{})
	viper.SetDefault("telegram.poll_timeout", 30*time.Second)
	viper.SetDefault("telegram.task_timeout", 2*time.Minute)
	viper.SetDefault("telegram.max_concurrency", 3)

	viper.SetDefault("gigachat.auth_key", "")
	viper.SetDefault("gigachat.scope", "GIGACHAT_API_PERS")
	viper.SetDefault("gigachat.oauth_url", "")
	viper.SetDefault("gigachat.api_base", "")
	viper.SetDefault("gigachat.model", "GigaChat:latest")
	viper.SetDefault("gigachat.temperature", 0.5)
	viper.SetDefault("gigachat.request_timeout", 30*time.Second)
	viper.SetDefault("gigachat.insecure_skip_verify", false)

	viper.SetDefault("history.dir", "history")
}
