// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"postforge/internal/models"
)

var promptFuncs = template.FuncMap{
	"join": strings.Join,
}

var narrativeSystemTmpl = template.Must(template.New("narrative-system").Funcs(promptFuncs).Parse(
	`Você é um estrategista de conteúdo para redes sociais. Sua tarefa é propor exatamente 4 narrativas distintas para um post do tipo "{{.ContentType}}".

Cada narrativa deve adotar um ângulo diferente, e os 4 ângulos abaixo devem aparecer uma única vez:
- herege: desafia uma crença aceita pelo mercado e mostra o que está errado nela.
- visionario: aponta para onde o tema está indo e o que muda para quem se antecipar.
- tradutor: explica algo complexo com clareza e exemplos concretos.
- testemunha: parte de uma experiência vivida e do que ela ensinou.
{{template "variables" .Vars}}
Responda somente com JSON válido, sem texto antes ou depois, no formato:
{"narratives":[{"id":"1","title":"...","description":"...","angle":"herege","hook":"...","core_belief":"...","status_quo_challenged":"...","keywords":["..."],"tone":"..."}]}
Os campos id, title, description e angle são obrigatórios. O campo angle deve ser exatamente um de: herege, visionario, tradutor, testemunha.`))

var narrativeUserTmpl = template.Must(template.New("narrative-user").Parse(
	`Tema: {{.Theme}}
{{- if .Objective}}
Objetivo: {{.Objective}}{{end}}
{{- if .Audience}}
Público-alvo: {{.Audience}}{{end}}
{{- if .ExtractedContent}}

Conteúdo extraído da fonte:
{{.ExtractedContent}}{{end}}
{{- if .Research}}

Pesquisa de apoio:
{{.Research}}{{end}}
{{- if .RAGContext}}

Contexto da base de conhecimento:
{{.RAGContext}}{{end}}`))

var contentSystemTmpl = template.Must(template.New("content-system").Funcs(promptFuncs).Parse(
	`Você é um redator de conteúdo para redes sociais. Escreva em português do Brasil seguindo a narrativa escolhida.

Narrativa:
- Ângulo: {{.Narrative.Angle}}
- Título: {{.Narrative.Title}}
- Descrição: {{.Narrative.Description}}
{{- if .Narrative.Hook}}
- Gancho: {{.Narrative.Hook}}{{end}}
{{- if .Narrative.CoreBelief}}
- Crença central: {{.Narrative.CoreBelief}}{{end}}
{{template "variables" .Vars}}
{{- if .NegativeTerms}}
Nunca use estes termos: {{join .NegativeTerms ", "}}.
{{end}}
{{.Format}}
Responda somente com JSON válido, sem texto antes ou depois.`))

var contentUserTmpl = template.Must(template.New("content-user").Parse(
	`{{if .Theme}}Tema: {{.Theme}}
{{end}}{{if .Audience}}Público-alvo: {{.Audience}}
{{end}}{{if .CTA}}Chamada para ação: {{.CTA}}
{{end}}{{if .RAGContext}}
Contexto da base de conhecimento:
{{.RAGContext}}
{{end}}`))

var imagePromptSystemTmpl = template.Must(template.New("image-prompt-system").Parse(
	`You write prompts for an image generation model. Turn the slide below into one detailed visual description in English.
Do not ask for any text, letters or logos inside the image.
{{- if .Palette}}
Color palette: {{.Palette}}.{{end}}
{{- if .VisualStyle}}
Visual style: {{.VisualStyle}}.{{end}}
{{- if .Composition}}
Composition: {{.Composition}}.{{end}}
{{- if .Mood}}
Mood: {{.Mood}}.{{end}}
Portrait 4:5 framing for an Instagram feed post.

Reply only with JSON: {"prompt":"...","negativePrompt":"..."}`))

var imagePromptUserTmpl = template.Must(template.New("image-prompt-user").Parse(
	`{{if .Title}}Slide title: {{.Title}}
{{end}}Slide text: {{.Content}}{{if .ImagePrompt}}
Suggested image: {{.ImagePrompt}}{{end}}`))

// variablesTmpl is shared by the system prompts through {{template}}.
const variablesTmpl = `{{define "variables"}}{{if .}}
Preferências do autor:
{{- if .Tone}}
- Tom de voz: {{.Tone}}{{end}}
{{- if .TargetAudience}}
- Público habitual: {{.TargetAudience}}{{end}}
{{- if .BrandVoice}}
- Voz da marca: {{.BrandVoice}}{{end}}
{{- if .Niche}}
- Nicho: {{.Niche}}{{end}}
{{- if .ForbiddenTerms}}
- Termos proibidos: {{join .ForbiddenTerms ", "}}{{end}}
{{end}}{{end}}`

func init() {
	for _, t := range []*template.Template{narrativeSystemTmpl, contentSystemTmpl} {
		template.Must(t.Parse(variablesTmpl))
	}
}

// contentFormats describes the JSON each content type must return.
var contentFormats = map[ContentType]string{
	Carousel: `Crie um carrossel com {{slides}} slides de conteúdo além da capa. Formato:
{"capa":{"titulo":"...","subtitulo":"..."},"slides":[{"numero":1,"tipo":"...","titulo":"...","corpo":"...","conexao_proximo":"..."}],"legenda":"...","throughline":"...","valor_central":"..."}`,
	Text: `Crie um post de texto. Formato:
{"content":"...","hashtags":["..."],"cta":"..."}`,
	Image: `Crie um post de imagem única. Formato:
{"imagePrompt":"descrição visual em inglês","caption":"...","hashtags":["..."]}`,
	Video: `Crie o roteiro de um vídeo curto. Formato:
{"meta":{"duracao":"...","formato":"..."},"roteiro":{"gancho":"...","cenas":[{"tempo":"...","fala":"...","visual":"..."}],"cta":{"texto":"..."}},"thumbnail":{"titulo":"...","descricao":"..."}}`,
}

// nonEmptyVars returns nil for unset variables so templates can skip
// the whole preferences block.
func nonEmptyVars(v *models.UserVariables) *models.UserVariables {
	if v.IsEmpty() {
		return nil
	}
	return v
}

func narrativePrompts(in NarrativeInput, vars *models.UserVariables) (system, user string, err error) {
	contentType := in.ContentType
	if contentType == "" {
		contentType = Carousel
	}
	system, err = execute(narrativeSystemTmpl, map[string]any{
		"ContentType": contentType,
		"Vars":        nonEmptyVars(vars),
	})
	if err != nil {
		return "", "", err
	}
	user, err = execute(narrativeUserTmpl, in)
	return system, user, err
}

func contentPrompts(in ContentInput, vars *models.UserVariables) (system, user string, err error) {
	slides := in.NumberOfSlides
	if slides <= 0 {
		slides = models.DefaultNumberOfSlides
	}
	format := strings.ReplaceAll(contentFormats[in.ContentType], "{{slides}}", fmt.Sprint(slides))

	system, err = execute(contentSystemTmpl, map[string]any{
		"Narrative":     in.Narrative,
		"Vars":          nonEmptyVars(vars),
		"NegativeTerms": in.NegativeTerms,
		"Format":        format,
	})
	if err != nil {
		return "", "", err
	}
	user, err = execute(contentUserTmpl, in)
	return system, user, err
}

func imagePromptPrompts(s Slide, opts ImageOptions) (system, user string, err error) {
	system, err = execute(imagePromptSystemTmpl, map[string]any{
		"Palette":     paletteDescription(opts),
		"VisualStyle": opts.VisualStyle,
		"Composition": opts.Composition,
		"Mood":        opts.Mood,
	})
	if err != nil {
		return "", "", err
	}
	user, err = execute(imagePromptUserTmpl, s)
	return system, user, err
}

func execute(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("prompt %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
