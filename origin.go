package voicechat

// Origin identifies who produced a message.
type Origin string

const (
	OriginUser      Origin = "user"
	OriginAssistant Origin = "assistant"
)

// Valid reports whether o is one of the known origins.
func (o Origin) Valid() bool {
	switch o {
	case OriginUser, OriginAssistant:
		return true
	default:
		return false
	}
}
