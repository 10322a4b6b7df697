// Package menu maps inbound text to canned storefront replies. The
// dispatcher is a pure function: no I/O, no clock, no hidden state.
package menu

import (
	"fmt"
	"strconv"
	"strings"
)

// Reply is the dispatch outcome. Menu means the contact opened the
// conversation and the session should be marked initiated. None means
// stay silent: stray chatter never gets an automated answer.
type Reply struct {
	Text string
	Menu bool
	None bool
}

var triggers = map[string]bool{
	"menu":      true,
	"oi":        true,
	"olá":       true,
	"ola":       true,
	"bom dia":   true,
	"boa tarde": true,
	"boa noite": true,
}

var exitWords = map[string]bool{
	"sair":  true,
	"parar": true,
}

var confirmWords = map[string]bool{
	"sim": true,
	"s":   true,
}

const (
	invalidOption = "❌ Opção inválida. Digite *MENU* para ver as opções."
	exitPrompt    = "Deseja encerrar o atendimento? Digite *SIM* para confirmar."
	closing       = "✅ Atendimento encerrado. Obrigado pelo contato! Digite *MENU* quando precisar de nós novamente."

	// IdleWarning and IdleClosing are the sweep notices sent to idle
	// contacts.
	IdleWarning = "⏳ Você ainda está aí? O atendimento será encerrado em breve por inatividade."
	IdleClosing = "✅ Atendimento encerrado por inatividade. Digite *MENU* quando precisar de nós novamente."
)

// Dispatch resolves one inbound message. name personalizes the menu,
// protocol is the session ticket number quoted in option 1, and hour is
// the local hour used to pick the greeting.
func Dispatch(body, name, protocol string, hour int) Reply {
	cmd := strings.ToLower(strings.TrimSpace(body))

	if triggers[cmd] {
		return Reply{Text: menuText(name, hour), Menu: true}
	}

	if text, ok := cannedResponse(cmd, protocol); ok {
		return Reply{Text: text}
	}

	if isBareInteger(cmd) {
		return Reply{Text: invalidOption}
	}

	if exitWords[cmd] {
		return Reply{Text: exitPrompt}
	}
	// Stateless confirmation: an unprompted "sim" also closes, which
	// matches the storefront's original behavior.
	if confirmWords[cmd] {
		return Reply{Text: closing}
	}

	return Reply{None: true}
}

// Greeting returns the time-of-day salutation for the given local hour.
func Greeting(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "Bom dia"
	case hour >= 12 && hour < 18:
		return "Boa tarde"
	default:
		return "Boa noite"
	}
}

func menuText(name string, hour int) string {
	return fmt.Sprintf(`%s, *%s*! 👋

🛍️  *[1]* Falar com Vendedor
💰  *[2]* Financeiro
💼  *[3]* Trabalhe Conosco
🔔  *[4]* Ofertas
📍  *[5]* Localização

Digite o número da opção:`, Greeting(hour), name)
}

func cannedResponse(cmd, protocol string) (string, bool) {
	switch cmd {
	case "1":
		return fmt.Sprintf("📞 Um vendedor entrará em contato em breve! Seu protocolo é *%s*.", protocol), true
	case "2":
		return "💰 Envie seu CPF/CNPJ para consulta financeira.", true
	case "3":
		return "💼 Envie seu currículo para: rh@empresa.com", true
	case "4":
		return "🔔 Cadastro realizado! Você receberá nossas ofertas.", true
	case "5":
		return "📍 Av. Principal, 123 - Centro\nhttps://maps.app.goo.gl/xxxx", true
	}
	return "", false
}

// isBareInteger reports whether the whole input is a plain number, so
// out-of-range options get the invalid-option reply instead of silence.
func isBareInteger(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil
}
