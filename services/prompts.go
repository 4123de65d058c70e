package services

import (
	"fmt"
	"strings"
)

// PromptSet bundles every template the generator and the evaluator consume.
// Version is stored with every saved round; bump it whenever the wording
// changes.
type PromptSet struct {
	Version string

	// Company is injected into scenario and coach prompts.
	Company string

	ScenarioTemplate   string
	ScenarioRequest    string
	SimulationTemplate string
	ImprovedTemplate   string
	CoachSystem        string
	CoachTemplate      string
}

const defaultCompanyContext = `EMPRESA: Etixen SRL.
RUBRO: Consultora IT.
PRODUCTOS: Google Workspace, Zoho (toda la suite), Desarrollos a medida, Integraciones (ej: Zoho Books Argentina).
TONO: Cercano pero profesional. Técnico pero accesible.
MISIÓN: Ayudar a empresas a implementar soluciones tecnológicas eficientes.`

const scenarioTemplateV1 = `Genera un MICRO-ESCENARIO de entrenamiento (Nivel Realista pero Breve).

REGLAS DE ORO:
1. Usa el CONTEXTO DE EMPRESA proveído. El problema debe ser algo que pasaría en la empresa mañana mismo.
2. La situación debe ser simple y enfocada en UNA sola tarea clave.
3. Incluye datos técnicos simulados si aplica (Logs, JSON, correos del cliente).

ESTRUCTURA OBLIGATORIA DE LA RESPUESTA (Usa Markdown estándar):

### Contexto
[Breve descripción del problema. Ej: "Un cliente de Zoho Books tiene problemas con la factura electrónica..."]

### El Dato/Evidencia
[El hallazgo o el mensaje del cliente. Ej: "El cliente envió este error..." o "El cliente dijo: ..."]

### Datos Adjuntos
[Genera un bloque de código PEQUEÑO (CSV, JSON, Log o Texto de correo) necesario para resolver la tarea]

### Tu Misión
[Define UNA acción concreta. Ej: "Redacta la respuesta técnica explicando el error" o "Pide a la IA que genere el script de corrección". Sé específico.]`

// simulationTemplateV1 keeps the simulated tool strictly literal so a vague
// instruction produces a visibly weak answer.
const simulationTemplateV1 = `Actúa como una IA asistente o la herramienta a la que se dirige el usuario en el contexto de la empresa.

CONTEXTO TÉCNICO DEL ESCENARIO:
%s

INSTRUCCIONES CRÍTICAS DE RESPUESTA:
1. LITERALIDAD EXTREMA: Solo haz lo que el prompt pide explícitamente.
   - Si pide "un correo", escribe solo uno.
   - Si no especifica "tono cercano", usa un tono robótico/genérico por defecto.
   - Si olvida adjuntar los datos del escenario (copiar/pegar), responde que te faltan datos.
2. NO COMPLETES INFORMACIÓN: Si el usuario es vago, tu respuesta debe ser vaga o incompleta.
3. OBJETIVO: Demostrarle al usuario que si pide mal, obtiene malos resultados.`

const improvedTemplateV1 = `Actúa como la herramienta/persona del escenario. Contexto: %s.`

const coachSystemV1 = `Eres un Mentor Senior en Ingeniería de Prompts.`

const coachTemplateV1 = `Contexto Empresa: %s
Escenario: %s
Prompt del Usuario: "%s"

Tarea: Evalúa el prompt del usuario basándote en la estructura de los 4 PILARES DEL PROMPTING (RICF).

CRITERIOS DE EVALUACIÓN OBLIGATORIOS:
1. ROL: ¿Definió quién debe ser la IA? (Ej: "Eres un experto en Zoho Creator", "Actúa como un agente de soporte empático").
2. INSTRUCCIÓN: ¿Usó un verbo de acción claro y específico? (Ej: "Redacta", "Analiza", "Resume").
3. CONTEXTO: ¿Proveyó la información de fondo, audiencia y objetivo? (Ej: "Es para un cliente enojado", "El objetivo es vender la licencia").
4. FORMATO DE SALIDA: ¿Especificó cómo quiere la entrega? (Ej: "Lista de 3 puntos", "Tono formal", "JSON", "Menos de 50 palabras").

Si falta alguno de estos 4 elementos, baja el puntaje drásticamente y menciónalo explícitamente en la crítica.

Salida JSON: { "score": number, "critique": string, "improved_prompt": string, "explanation": string }`

// DefaultPrompts returns the v1 prompt set. An empty company falls back to
// the built-in company context.
func DefaultPrompts(company string) PromptSet {
	if strings.TrimSpace(company) == "" {
		company = defaultCompanyContext
	}
	return PromptSet{
		Version:            "v1",
		Company:            company,
		ScenarioTemplate:   scenarioTemplateV1,
		ScenarioRequest:    "Genera un nuevo escenario simple ahora.",
		SimulationTemplate: simulationTemplateV1,
		ImprovedTemplate:   improvedTemplateV1,
		CoachSystem:        coachSystemV1,
		CoachTemplate:      coachTemplateV1,
	}
}

// ScenarioSystem frames scenario generation for one role.
func (p PromptSet) ScenarioSystem(persona, topics string) string {
	var sb strings.Builder
	sb.WriteString(persona)
	sb.WriteString("\nContexto: ")
	sb.WriteString(p.Company)
	if topics != "" {
		sb.WriteString("\nTemas típicos: ")
		sb.WriteString(topics)
	}
	sb.WriteString("\n\n")
	sb.WriteString(p.ScenarioTemplate)
	return sb.String()
}

func (p PromptSet) SimulationSystem(scenario string) string {
	return fmt.Sprintf(p.SimulationTemplate, scenario)
}

func (p PromptSet) ImprovedSystem(scenario string) string {
	return fmt.Sprintf(p.ImprovedTemplate, scenario)
}

func (p PromptSet) CoachPrompt(scenario, instruction string) string {
	return fmt.Sprintf(p.CoachTemplate, p.Company, scenario, instruction)
}
