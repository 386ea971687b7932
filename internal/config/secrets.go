package config

// Redacted returns a shallow copy of cfg with sensitive fields replaced by
// the redaction placeholder "***". Use this when logging the active
// configuration so secrets are never accidentally exposed.
func Redacted(cfg *Config) Config {
	out := *cfg

	redact(&out.Exchange.AppKey)
	redact(&out.Exchange.SessionToken)
	redact(&out.Feed.APIKey)
	redact(&out.Supabase.DSN)
	redact(&out.Supabase.Password)
	redact(&out.Redis.Password)
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// Copy slices and maps so callers cannot mutate the original through
	// the redacted copy.
	if cfg.Sports != nil {
		out.Sports = make([]SportConfig, len(cfg.Sports))
		copy(out.Sports, cfg.Sports)
	}
	if cfg.Feed.Bookmakers != nil {
		out.Feed.Bookmakers = make([]BookmakerConfig, len(cfg.Feed.Bookmakers))
		copy(out.Feed.Bookmakers, cfg.Feed.Bookmakers)
	}
	if cfg.Server.CORSOrigins != nil {
		out.Server.CORSOrigins = make([]string, len(cfg.Server.CORSOrigins))
		copy(out.Server.CORSOrigins, cfg.Server.CORSOrigins)
	}
	if cfg.Aliases != nil {
		out.Aliases = make(map[string][]string, len(cfg.Aliases))
		for k, v := range cfg.Aliases {
			out.Aliases[k] = v
		}
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
