package core

import (
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName      string `mapstructure:"appName"`
		Env          string `mapstructure:"env"`
		Build        string `mapstructure:"build"`
		Debug        bool   `mapstructure:"debug"`
		TestMode     bool   `mapstructure:"testMode"`
		RootDir      string `mapstructure:"rootDir"`
		LogFile      string `mapstructure:"logFile"`
		RollbarToken string `mapstructure:"rollbarToken"`

		Files      FilesConfig      `mapstructure:"files"`
		Extract    ExtractConfig    `mapstructure:"extract"`
		Reports    ReportsConfig    `mapstructure:"reports"`
		Gradebooks GradebooksConfig `mapstructure:"gradebooks"`
		Database   DatabaseConfig   `mapstructure:"database"`
		Email      EmailConfig      `mapstructure:"email"`
		Console    ConsoleConfig    `mapstructure:"console"`
		Schedule   ScheduleConfig   `mapstructure:"schedule"`
	}

	FilesConfig struct {
		Classes  string `mapstructure:"classes"`
		Students string `mapstructure:"students"`
		Videos   string `mapstructure:"videos"`
		Extract  string `mapstructure:"extract"`
	}

	// ExtractConfig holds the column positions of the institutional enrollment extract.
	ExtractConfig struct {
		CourseCol int `mapstructure:"courseCol"`
		SIDCol    int `mapstructure:"sidCol"`
		FirstCol  int `mapstructure:"firstCol"`
		LastCol   int `mapstructure:"lastCol"`
		EmailCol  int `mapstructure:"emailCol"`
	}

	// ReportsConfig describes the view reports downloaded from the video platform.
	ReportsConfig struct {
		Folder           string `mapstructure:"folder"`
		Pattern          string `mapstructure:"pattern"`
		TimeLayout       string `mapstructure:"timeLayout"`
		LastNameCol      int    `mapstructure:"lastNameCol"`
		FirstNameCol     int    `mapstructure:"firstNameCol"`
		VideoCol         int    `mapstructure:"videoCol"`
		StartCol         int    `mapstructure:"startCol"`
		EndCol           int    `mapstructure:"endCol"`
		PlayLengthCol    int    `mapstructure:"playLengthCol"`
		VideoLengthCol   int    `mapstructure:"videoLengthCol"`
		TotalPlayTimeCol int    `mapstructure:"totalPlayTimeCol"`
	}

	GradebooksConfig struct {
		Folder string `mapstructure:"folder"`
	}

	DatabaseConfig struct {
		Engine        string `mapstructure:"engine"`
		Host          string `mapstructure:"host"`
		Port          int    `mapstructure:"port"`
		Name          string `mapstructure:"name"`
		User          string `mapstructure:"user"`
		Password      string `mapstructure:"password"`
		AdminUser     string `mapstructure:"adminUser"`
		AdminPassword string `mapstructure:"adminPassword"`
		DisableTLS    bool   `mapstructure:"disableTLS"`
	}

	EmailConfig struct {
		Enabled        bool   `mapstructure:"enabled"`
		FromName       string `mapstructure:"fromName"`
		FromAddress    string `mapstructure:"fromAddress"`
		SendgridAPIKey string `mapstructure:"sendgridApiKey"`
	}

	ConsoleConfig struct {
		Suppress bool `mapstructure:"suppress"`
	}

	// ScheduleConfig drives the import of the class schedule workbook.
	// viper lower-cases map keys, so lookups must be lower-cased too.
	ScheduleConfig struct {
		File      string              `mapstructure:"file"`
		Output    string              `mapstructure:"output"`
		Prefix    string              `mapstructure:"prefix"`
		TermDates map[string][]string `mapstructure:"termDates"`
		Playlists map[string]string   `mapstructure:"playlists"`
	}
)

const (
	DBEnginePostgres = "postgres"
	DBEngineMemory   = "memory"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("appName", "VideoGrader")
	v.SetDefault("build", "dev")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("logFile", "videograder.log")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("files.classes", "classes.csv")
	v.SetDefault("files.students", "students.csv")
	v.SetDefault("files.videos", "videodata.csv")
	v.SetDefault("files.extract", "extract.csv")

	v.SetDefault("extract.courseCol", 0)
	v.SetDefault("extract.sidCol", 1)
	v.SetDefault("extract.firstCol", 2)
	v.SetDefault("extract.lastCol", 3)
	v.SetDefault("extract.emailCol", 4)

	v.SetDefault("reports.folder", "reports")
	v.SetDefault("reports.pattern", "*_report.csv")
	v.SetDefault("reports.timeLayout", "2006-01-02 15:04:05")
	v.SetDefault("reports.lastNameCol", 0)
	v.SetDefault("reports.firstNameCol", 1)
	v.SetDefault("reports.videoCol", 2)
	v.SetDefault("reports.startCol", 3)
	v.SetDefault("reports.endCol", 4)
	v.SetDefault("reports.playLengthCol", 5)
	v.SetDefault("reports.videoLengthCol", 6)
	v.SetDefault("reports.totalPlayTimeCol", 7)

	v.SetDefault("gradebooks.folder", "gradebooks")

	v.SetDefault("database.engine", DBEnginePostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "videograder")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", false)

	v.SetDefault("email.enabled", false)
	v.SetDefault("email.fromName", "VideoGrader")
	v.SetDefault("email.fromAddress", "noreply@localhost")
	v.SetDefault("email.sendgridApiKey", "")

	v.SetDefault("console.suppress", false)

	v.SetDefault("schedule.file", "schedule.xlsx")
	v.SetDefault("schedule.output", "classes_new.csv")
	v.SetDefault("schedule.prefix", "mat")
	v.SetDefault("schedule.termDates", map[string][]string{})
	v.SetDefault("schedule.playlists", map[string]string{})
}

// NewConfig loads the configuration: defaults, then the optional config file at `path`,
// then `.env.<env>` next to it, then the environment (prefixed with the env name).
func NewConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	rootDir, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "getting working directory")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config file %q", path)
		}
		if rootDir, err = filepath.Abs(filepath.Dir(path)); err != nil {
			return nil, errors.Wrap(err, "resolving config directory")
		}
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(rootDir, ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
	}
	v.AutomaticEnv()

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	conf.Env = env
	conf.RootDir = rootDir
	return &conf, nil
}

// Path resolves `p` against the directory holding the config file.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.RootDir, p)
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.Email.FromName, Address: c.Email.FromAddress}
}

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, strconv.Itoa(db.Port))
}
