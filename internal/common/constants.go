package common

// Environment variable keys
const (
	EnvConfigFile      = "CONFIG_FILE"
	EnvDotEnvFile      = "DOTENV_FILE"
	EnvModelPath       = "MODEL_PATH"
	EnvDatasetPath     = "DATASET_PATH"
	EnvDataPath        = "DATA_PATH"
	EnvHTTPHost        = "HTTP_HOST"
	EnvHTTPPort        = "HTTP_PORT"
	EnvDefaultSeed     = "DEFAULT_SEED"
	EnvContactURL      = "CONTACT_URL"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "LOG_FORMAT"
	EnvLogFile         = "LOG_FILE"
	EnvLogMaxSizeMB    = "LOG_MAX_SIZE_MB"
	EnvLogMaxBackups   = "LOG_MAX_BACKUPS"
	EnvLogMaxAgeDays   = "LOG_MAX_AGE_DAYS"
	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
	EnvProgressDelay   = "PROGRESS_DELAY"
)

// Configuration defaults
const (
	DefaultDotEnvFile    = ".env"
	DefaultModelPath     = "models/heart_model.json"
	DefaultDatasetPath   = "data/heart.csv"
	DefaultHTTPPort      = 8501
	DefaultSeed          = 11
	DefaultContactURL    = "https://docs.google.com/forms/d/e/1FAIpQLSfLwo3-ETSS-JYSgGhKKxqluSBisCIg5bfHYYvOaT6w8uG3hg/viewform"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogMaxSizeMB  = 50
	DefaultLogMaxBackups = 3
	DefaultLogMaxAgeDays = 28
)

// Validation constants
const (
	MinHTTPPort      = 1024
	MaxHTTPPort      = 65535
	MaxProgressDelay = 5 // seconds
)

// Fixed result messages shown to the operator.
const (
	MessageNoDisease = "No Heart Disease Detected. Note: this is a prediction, consult a doctor for diagnosis."
	MessageDisease   = "Heart Disease Found. This prediction suggests possible heart disease, seek medical advice."
)

// Page copy for the prediction form.
const (
	PageTitle    = "Heart Disease Prediction Using Machine Learning"
	PageSubtitle = "Fast predictions using pre-trained models, keep your doctor informed."
	PageHint     = "Set the input sliders and press Run Model to predict."
	ProjectBlurb = "Heart disease prevention is critical, and data-driven prediction systems can significantly aid in early diagnosis and treatment. " +
		"This service applies a classifier trained on a heart disease dataset to the attributes entered below."
)
