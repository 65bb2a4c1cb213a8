package classify

import "github.com/cloudwego/eino/schema"

var languageTool = &schema.ToolInfo{
	Name: languageToolName,
	Desc: "Detecta el idioma predominante del mensaje del usuario.",
	ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
		"language": {
			Type:     schema.String,
			Desc:     "Idioma detectado, por ejemplo: español, inglés, alemán, francés, italiano, japonés, portugués, etc.",
			Required: true,
		},
	}),
}

var errorsTool = &schema.ToolInfo{
	Name: errorsToolName,
	Desc: "Evalúa si el texto del usuario en el idioma indicado contiene errores gramaticales, de vocabulario u ortografía que merezca la pena corregir.",
	ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
		"has_errors": {
			Type:     schema.Boolean,
			Desc:     "true si el texto tiene errores relevantes que conviene corregir; false si el texto es correcto o solo tiene detalles menores.",
			Required: true,
		},
		"severity": {
			Type: schema.String,
			Desc: "Grado aproximado de error en el texto.",
			Enum: []string{"none", "slight", "moderate", "high"},
		},
	}),
}

const languageSystemPrompt = "Tu única tarea es detectar el idioma del mensaje y devolverlo mediante la función 'classify_language'. No añadas texto adicional."

const errorsSystemPrompt = "Eres un asistente que evalúa textos. Tu tarea es SOLO decidir si el mensaje del usuario en el idioma indicado ({language}) tiene errores gramaticales, de vocabulario u ortográficos lo suficientemente relevantes como para que un profesor los corrija. No corrijas el texto, no des ejemplos, no des explicaciones. Devuelve únicamente el resultado mediante la función 'evaluate_errors'."
