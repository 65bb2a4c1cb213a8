package persona

// Mode identifies which assistant answers a sender's non-command messages.
type Mode string

const (
	// Tutor is the language-practice persona and the default for unknown senders.
	Tutor Mode = "idiomas"
	// Chef is the culinary assistant persona.
	Chef Mode = "chef"
)

// DefaultMode is used when a sender never switched personas.
const DefaultMode = Tutor

// Valid reports whether m names a built-in persona.
func (m Mode) Valid() bool {
	return m == Tutor || m == Chef
}

// Persona captures an assistant mode and the commands that activate it.
type Persona struct {
	ID          Mode     `json:"id"`
	Name        string   `json:"name"`
	Emoji       string   `json:"emoji"`
	Commands    []string `json:"commands"`
	Description string   `json:"description"`
}

// Label returns the decorated name used in WhatsApp replies.
func (p Persona) Label() string {
	if p.Emoji == "" {
		return "*" + p.Name + "*"
	}
	return p.Emoji + " *" + p.Name + "*"
}

// Seed provides the built-in assistants. The first command of each persona is the one
// advertised in the menu.
func Seed() []Persona {
	return []Persona{
		{
			ID:          Tutor,
			Name:        "Idiomas",
			Emoji:       "🧠",
			Commands:    []string{"/idiomas", "/tutor"},
			Description: "Bot de idiomas",
		},
		{
			ID:          Chef,
			Name:        "Chef",
			Emoji:       "🍳",
			Commands:    []string{"/chef", "/cocina"},
			Description: "Asistente chef 🍳",
		},
	}
}
