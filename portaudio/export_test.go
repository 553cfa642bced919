package portaudio

var (
	InputDevices  = inputDevices
	MatchesDevice = matchesDevice
)
