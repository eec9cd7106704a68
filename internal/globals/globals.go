package globals

// addressing
const (
	DEFAULT_ADDRESS   = 0x64
	BROADCAST_ADDRESS = 0xFE
	MAX_ADDRESS       = 247
)

// sensor types reported by GetType
const (
	TYPE_MTP40C  = 0x02
	TYPE_MTP40D  = 0x03
	TYPE_UNKNOWN = 0xFF
)

// error codes reported by LastError
const (
	MTP40_OK                   = 0x00
	MTP40_INVALID_AIR_PRESSURE = 0x01
	MTP40_INVALID_GAS_LEVEL    = 0x02
	MTP40_INVALID_ADDRESS      = 0xFF
)

// failure sentinels, one per operation return type
const (
	SENTINEL_ADDRESS           = 0xFF
	SENTINEL_AIR_PRESSURE      = -999
	SENTINEL_GAS_CONCENTRATION = 0
	SENTINEL_SELF_CALIB_STATUS = 0x02
	SENTINEL_SELF_CALIB_HOURS  = 0xFFFF
)

// self calibration status byte, also the payload of the open/close commands
const (
	SELF_CALIB_OPEN   = 0xFF
	SELF_CALIB_CLOSED = 0x00
)

// parameter ranges, inclusive
const (
	AIR_PRESSURE_MIN     = 700
	AIR_PRESSURE_MAX     = 1100
	SINGLE_POINT_MIN     = 400
	SINGLE_POINT_MAX     = 5000
	SELF_CALIB_HOURS_MIN = 24
	SELF_CALIB_HOURS_MAX = 720
)

// frame layout
const (
	FRAME_BUFFER_SIZE = 24
	MIN_COMMAND_SIZE  = 4
	CRC_SIZE          = 2
)

// timing, in milliseconds
const (
	DEFAULT_TIMEOUT_MS = 100
	DEFAULT_POLL_MS    = 2
	READ_INTERVAL_MS   = 4000
)

// datasheet UART settings are 9600 8N1
const DEFAULT_BAUD_RATE = 9600
