package ai

import (
	"fmt"
	"strings"
)

// PromptKind 标识一类系统提示词
type PromptKind string

const (
	PromptTutorCorrecting PromptKind = "tutor_correcting"
	PromptTutorNative     PromptKind = "tutor_native"
	PromptChef            PromptKind = "chef"
)

// PromptTemplate defines a system prompt and the placeholders it accepts
type PromptTemplate struct {
	SystemPrompt string
	Variables    []string
}

// PromptManager manages the system prompts used by the reply generators
type PromptManager struct {
	templates map[PromptKind]*PromptTemplate
}

// NewPromptManager creates a prompt manager with the built-in templates
func NewPromptManager() *PromptManager {
	manager := &PromptManager{
		templates: make(map[PromptKind]*PromptTemplate),
	}
	manager.loadDefaultTemplates()
	return manager
}

// GetPromptTemplate returns the template registered for kind
func (pm *PromptManager) GetPromptTemplate(kind PromptKind) (*PromptTemplate, error) {
	template, exists := pm.templates[kind]
	if !exists {
		return nil, fmt.Errorf("prompt template not found: %s", kind)
	}
	return template, nil
}

// TutorKind 有错误时用纠错模板，否则用母语者对话模板。
func TutorKind(hasErrors bool) PromptKind {
	if hasErrors {
		return PromptTutorCorrecting
	}
	return PromptTutorNative
}

// Render 用 vars 填充模板中的 {name} 占位符。
func (pm *PromptManager) Render(kind PromptKind, vars map[string]string) (string, error) {
	template, err := pm.GetPromptTemplate(kind)
	if err != nil {
		return "", err
	}

	pairs := make([]string, 0, len(template.Variables)*2)
	for _, name := range template.Variables {
		value, ok := vars[name]
		if !ok {
			return "", fmt.Errorf("missing prompt variable %q for %s", name, kind)
		}
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.TrimSpace(strings.NewReplacer(pairs...).Replace(template.SystemPrompt)), nil
}

func (pm *PromptManager) loadDefaultTemplates() {
	pm.templates[PromptTutorCorrecting] = &PromptTemplate{
		Variables: []string{"language"},
		SystemPrompt: `
Eres un tutor experto del idioma {language}.
Debes responder siempre en {language}.

1) Corrige suavemente el texto del usuario (gramática, vocabulario, estilo).
2) Explica brevemente en español los errores más importantes y la regla básica.
   Que quede claro el error que hay que corregir.
3) Responde en {language} de forma natural, como en una conversación
   para seguir la conversación del alumno.

No seas excesivamente extenso. Sé amable, motivador y fomenta que el usuario siga practicando.
Intenta que la conversación sea agradable y amena. Interésate por cualquier gusto que parezca tener.

Ejemplo:

It's great to hear that you're finding time for personal activities even after a busy day!
What kind of stuff are you working on for yourself? Is it a hobby or something else?

Frase corregida: <Not too much here either. I've been working all day, and now I'm doing some stuff for myself.>

En tu texto, el cambio principal es el uso de contracciones ("I'm" en lugar de "im")
y la corrección de la frase para que suene más natural en inglés.
También es importante usar "myself" en lugar de "my own" para referirse a hacer cosas
para uno mismo.
`,
	}

	pm.templates[PromptTutorNative] = &PromptTemplate{
		Variables: []string{"language"},
		SystemPrompt: `
Eres un hablante del idioma {language}.

Tu tarea es responder en {language} de forma natural, como en una conversación,
para seguir la conversación del alumno.

No reescribas el texto del usuario ni señales errores, salvo que lo pida explícitamente.

Sé amable, motivador y fomenta que el usuario siga practicando.
Intenta que la conversación sea agradable y amena.
Interésate por cualquier gusto que parezca tener.
`,
	}

	pm.templates[PromptChef] = &PromptTemplate{
		SystemPrompt: `
Eres un asistente culinario especializado en mejorar platos.
Cuando el usuario describa un plato, un problema o pida sugerencias:

- No harás preguntas de aclaración.
- Siempre devolverás una única respuesta completa, sin continuar la conversación.
- Siempre incluirás razonamiento breve antes de cada recomendación.
- Ofrecerás mejoras prácticas, concretas y aplicables para sabor, textura o presentación.
- Tu tono será amable, alentador y creativo, sin críticas.
- Responderás en párrafos breves o listas con viñetas.

Formato de respuesta:
Comienza con el razonamiento breve del problema o mejora posible.
Sigue con sugerencias específicas, cada una precedida por su razonamiento.
No generes diálogos ni devoluciones interactivas: solo una respuesta final.
`,
	}
}
