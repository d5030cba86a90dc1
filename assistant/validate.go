package assistant

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxPromptLength is the longest prompt accepted, in characters.
const MaxPromptLength = 2000

// RefusalMessage answers prompts outside the inventory domain.
const RefusalMessage = "Maaf, saya hanya bisa membantu dengan manajemen barang dan penjualan. Silakan tanyakan tentang inventory, sales, atau forecast barang Anda. 😊"

var injectionPhrases = []string{
	"ignore previous instructions",
	"ignore all previous",
	"ignore the above",
	"disregard previous",
	"forget your instructions",
	"system prompt",
	"you are now",
	"act as",
	"pretend to be",
	"developer mode",
	"jailbreak",
	"abaikan instruksi",
	"abaikan semua instruksi",
	"lupakan instruksi",
	"lupakan semua",
	"berpura-pura",
	"pura-pura menjadi",
	"kamu sekarang adalah",
	"mode developer",
}

// domainStems are Indonesian stems matched as word prefixes so inflections
// such as "barangnya" or "penjualannya" still count.
var domainStems = []string{
	"barang", "stok", "inventori", "gudang", "persediaan",
	"jual", "penjualan", "terjual", "dijual", "prediksi", "ramal", "perkiraan", "restok",
	"harga", "kategori", "produk", "omset", "omzet", "laba", "keuntungan", "pendapatan",
	"transaksi", "pembelian", "laporan", "ringkasan", "tambah", "hapus", "ubah", "catat",
}

// domainWords must match a whole word. English words are listed with their
// inflections so "units" counts but "university" does not.
var domainWords = map[string]bool{
	"stock": true, "stocks": true, "inventory": true, "goods": true,
	"item": true, "items": true, "product": true, "products": true,
	"unit": true, "units": true, "price": true, "prices": true,
	"category": true, "categories": true, "sale": true, "sales": true,
	"sell": true, "selling": true, "sold": true, "forecast": true, "forecasts": true,
	"restock": true, "reorder": true, "profit": true, "profits": true, "revenue": true,
	"transaction": true, "transactions": true, "report": true, "reports": true,
	"summary": true, "dashboard": true,
	"untung": true, "beli": true, "membeli": true, "dibeli": true, "habis": true, "sisa": true,
}

var greetings = []string{
	"halo", "hallo", "hai", "hi", "hello", "hey", "pagi", "siang", "sore", "malam",
	"makasih", "terima", "thanks", "thank", "permisi", "assalamualaikum",
}

// IsRequestValid reports whether prompt may be forwarded to the model.
func IsRequestValid(prompt string) bool {
	text := strings.ToLower(strings.TrimSpace(prompt))
	if text == "" || utf8.RuneCountInString(text) > MaxPromptLength {
		return false
	}

	words := tokenize(text)
	for _, phrase := range injectionPhrases {
		if containsPhrase(words, tokenize(phrase)) {
			return false
		}
	}
	for _, w := range words {
		if isDomainWord(w) {
			return true
		}
	}
	// A short greeting opens the conversation even without a domain word.
	if len(words) > 0 && len(words) <= 5 {
		for _, g := range greetings {
			if words[0] == g {
				return true
			}
		}
	}
	return false
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}

// containsPhrase reports whether phrase occurs in words as consecutive whole words.
func containsPhrase(words, phrase []string) bool {
	if len(phrase) == 0 {
		return false
	}
	for i := 0; i+len(phrase) <= len(words); i++ {
		match := true
		for j, p := range phrase {
			if words[i+j] != p {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func isDomainWord(w string) bool {
	if domainWords[w] {
		return true
	}
	for _, stem := range domainStems {
		if strings.HasPrefix(w, stem) {
			return true
		}
	}
	return false
}
