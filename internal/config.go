package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/canti/internal/auth"
	"github.com/starford/canti/internal/publish"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeJWT      = "jwt"
)

var extRe = regexp.MustCompile(`^\.[A-Za-z0-9]+$`)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app" toml:"app"`
	Catalog CatalogConfig     `yaml:"catalog" toml:"catalog"`
	Songs   SongsConfig       `yaml:"songs" toml:"songs"`
	Lyrics  LyricsConfig      `yaml:"lyrics" toml:"lyrics"`
	Static  StaticConfig      `yaml:"static" toml:"static"`
	SQLite  SQLiteConfig      `yaml:"sqlite" toml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth" toml:"auth"`
	CORS    CORSConfig        `yaml:"cors" toml:"cors"`
	GitHub  GitHubConfig      `yaml:"github" toml:"github"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{
		&c.App, &c.Catalog, &c.Songs, &c.Lyrics, &c.SQLite, &c.Auth, &c.CORS, &c.GitHub,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" toml:"log_level"`
	HTTP     HTTPConfig `yaml:"http" toml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" toml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// CatalogConfig points at the JSON file holding the week's schedule.
type CatalogConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SongsConfig describes the directory of per-song HTML pages.
type SongsConfig struct {
	Dir       string `yaml:"dir" toml:"dir"`
	Extension string `yaml:"extension" toml:"extension"`
	Separator string `yaml:"separator" toml:"separator"`
	TitleCase bool   `yaml:"title_case" toml:"title_case"`
	Watch     bool   `yaml:"watch" toml:"watch"`
}

// Validate validates the songs configuration.
func (c *SongsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Extension, validation.Required, validation.Match(extRe)),
		validation.Field(&c.Separator, validation.Length(0, 1)),
	)
}

// LyricsConfig is the directory where lyrics sheets are written.
type LyricsConfig struct {
	Dir string `yaml:"dir" toml:"dir"`
}

// Validate validates the lyrics configuration.
func (c *LyricsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// StaticConfig optionally serves a frontend directory at "/".
type StaticConfig struct {
	Dir string `yaml:"dir" toml:"dir"`
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// UserConfig is one entry of the credential table.
type UserConfig struct {
	Username     string `yaml:"username" toml:"username"`
	Password     string `yaml:"password" toml:"password"`
	PasswordHash string `yaml:"password_hash" toml:"password_hash"`
	Role         string `yaml:"role" toml:"role"`
}

// Validate validates a user entry.
func (c UserConfig) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Username, validation.Required),
	); err != nil {
		return err
	}
	if (c.Password == "") == (c.PasswordHash == "") {
		return fmt.Errorf("auth: user %q needs exactly one of password or password_hash", c.Username)
	}
	return nil
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled": no authentication required, suitable for local dev.
//   - "jwt" (default): write routes need a bearer token from /api/login
//     (or Basic credentials); Secret and at least one user are required.
type AuthConfig struct {
	Mode     string        `yaml:"mode" toml:"mode"`
	Secret   string        `yaml:"secret" toml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl" toml:"token_ttl"`
	Users    []UserConfig  `yaml:"users" toml:"users"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeJWT
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeJWT)),
	); err != nil {
		return err
	}
	if !c.AuthEnabled() {
		return nil
	}
	if c.Secret == "" {
		return fmt.Errorf("auth: mode is %q but secret is empty", AuthModeJWT)
	}
	if c.TokenTTL <= 0 {
		return errors.New("auth: token_ttl must be positive")
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Users, validation.Required),
	)
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeJWT
}

// AuthUsers converts the configured users for the auth package.
func (c *AuthConfig) AuthUsers() []auth.User {
	out := make([]auth.User, len(c.Users))
	for i, u := range c.Users {
		out[i] = auth.User{
			Username:     u.Username,
			Password:     u.Password,
			PasswordHash: u.PasswordHash,
			Role:         u.Role,
		}
	}
	return out
}

// CORSConfig lists the origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins"`
}

// Validate validates the CORS configuration.
func (c *CORSConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.AllowedOrigins, validation.Each(validation.Required)),
	)
}

// GitHubConfig configures committing the catalog file to a repository.
type GitHubConfig struct {
	Token         string `yaml:"token" toml:"token"`
	Owner         string `yaml:"owner" toml:"owner"`
	Repo          string `yaml:"repo" toml:"repo"`
	Branch        string `yaml:"branch" toml:"branch"`
	Path          string `yaml:"path" toml:"path"`
	Message       string `yaml:"message" toml:"message"`
	APIURL        string `yaml:"api_url" toml:"api_url"`
	PublishOnSave bool   `yaml:"publish_on_save" toml:"publish_on_save"`
}

// Enabled reports whether enough settings are present to publish.
func (c *GitHubConfig) Enabled() bool {
	return c.Token != "" && c.Owner != "" && c.Repo != ""
}

// Validate validates the GitHub configuration.
func (c *GitHubConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.APIURL, is.URL),
	); err != nil {
		return err
	}
	if c.PublishOnSave && !c.Enabled() {
		return errors.New("github: publish_on_save needs token, owner and repo")
	}
	return nil
}

// PublishOptions converts the settings for the publish package.
func (c *GitHubConfig) PublishOptions() publish.Options {
	return publish.Options{
		Token:   c.Token,
		Owner:   c.Owner,
		Repo:    c.Repo,
		Branch:  c.Branch,
		Path:    c.Path,
		Message: c.Message,
		APIURL:  c.APIURL,
	}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Catalog: CatalogConfig{
			Path: "./data/canti.json",
		},
		Songs: SongsConfig{
			Dir:       "./canti",
			Extension: ".html",
			Separator: "-",
			TitleCase: true,
			Watch:     true,
		},
		Lyrics: LyricsConfig{
			Dir: "./testi",
		},
		SQLite: SQLiteConfig{
			Path: "./data/canti.db",
		},
		Auth: AuthConfig{
			Mode:     AuthModeJWT,
			TokenTTL: time.Hour,
		},
		GitHub: GitHubConfig{
			Branch:  "main",
			Path:    "canti.json",
			Message: "Aggiorno i canti della domenica",
			APIURL:  "https://api.github.com",
		},
	}
}
