package config

import (
	"errors"
	"os"
	"strconv"
)

type StorageType string

const (
	StorageJSONL    StorageType = "jsonl"
	StoragePostgres StorageType = "postgres"
	StorageBigQuery StorageType = "bigquery"
)

type Config struct {
	Token string // personlig access token (bearer)

	// GitHub App-autentisering, alternativ til token.
	AppID             int64
	AppInstallationID int64
	AppPrivateKey     string // sti til PEM-fil

	InputPath  string // fil med én repo-URL per linje
	OutputPath string // JSONL-utdata

	Storage       StorageType
	PostgresDSN   string
	BQProjectID   string
	BQDataset     string
	BQCredentials string // Valgfritt hvis GCP auth skjer automatisk

	Parallelism int // maks antall samtidige repo-prosesser
	Debug       bool
}

// NewConfig oppretter en ny konfigurasjon basert på miljøvariabler.
func NewConfig() (Config, error) {
	cfg := LoadConfigWithEnv(os.Getenv)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigWithEnv leser konfigurasjon via en injisert getenv, for testbarhet.
func LoadConfigWithEnv(getenv func(string) string) Config {
	storage := StorageType(getenv("SLS_STORAGE"))
	if storage == "" {
		storage = StorageJSONL
	}

	output := getenv("SLSNUSERN_OUTPUT")
	if output == "" {
		output = "repository_metadata.jsonl"
	}

	parallelism := 1
	if pStr := getenv("SLSNUSERN_PARALL"); pStr != "" {
		if p, err := strconv.Atoi(pStr); err == nil && p > 0 {
			parallelism = p
		} else {
			parallelism = 0 // fanges av Validate
		}
	}

	appID, _ := strconv.ParseInt(getenv("GITHUB_APP_ID"), 10, 64)
	instID, _ := strconv.ParseInt(getenv("GITHUB_APP_INSTALLATION_ID"), 10, 64)

	return Config{
		Token:             getenv("GITHUB_AUTH_TOKEN"),
		AppID:             appID,
		AppInstallationID: instID,
		AppPrivateKey:     getenv("GITHUB_APP_PRIVATE_KEY"),
		InputPath:         getenv("SLSNUSERN_INPUT"),
		OutputPath:        output,
		Storage:           storage,
		PostgresDSN:       getenv("POSTGRES_DSN"),
		BQProjectID:       getenv("BQ_PROJECT_ID"),
		BQDataset:         getenv("BQ_DATASET"),
		BQCredentials:     getenv("BQ_CREDENTIALS"),
		Parallelism:       parallelism,
		Debug:             getenv("SLSNUSERDEBUG") == "true",
	}
}

// UsesAppAuth sier om GitHub App-autentisering er konfigurert.
func (c Config) UsesAppAuth() bool {
	return c.AppID != 0 && c.AppInstallationID != 0 && c.AppPrivateKey != ""
}

// Validate sjekker at konfigurasjonen er komplett. Feil her er fatale for
// hele kjøringen, ikke per-repo.
func Validate(cfg Config) error {
	if cfg.Token == "" && !cfg.UsesAppAuth() {
		return errors.New("GITHUB_AUTH_TOKEN må være satt (eller GITHUB_APP_ID, GITHUB_APP_INSTALLATION_ID og GITHUB_APP_PRIVATE_KEY for app-auth)")
	}
	if cfg.InputPath == "" {
		return errors.New("SLSNUSERN_INPUT må peke på en fil med repo-URLer")
	}
	if cfg.Parallelism < 1 {
		return errors.New("SLSNUSERN_PARALL må være et positivt heltall")
	}

	switch cfg.Storage {
	case StorageJSONL:
		if cfg.OutputPath == "" {
			return errors.New("SLSNUSERN_OUTPUT må være satt for jsonl-lagring")
		}
	case StoragePostgres:
		if cfg.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN må være satt for postgres-lagring")
		}
	case StorageBigQuery:
		if cfg.BQProjectID == "" || cfg.BQDataset == "" {
			return errors.New("BQ_PROJECT_ID og BQ_DATASET må være satt for bigquery-lagring")
		}
	default:
		return errors.New("ugyldig verdi for SLS_STORAGE – må være 'jsonl', 'postgres' eller 'bigquery'")
	}

	return nil
}
