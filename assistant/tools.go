package assistant

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/umkm-labs/warung/apperr"
	"github.com/umkm-labs/warung/fields"
	"github.com/umkm-labs/warung/forecast"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Store is the data access the tools need.
type Store interface {
	ListGoods(ctx context.Context, userID uuid.UUID, page, limit int, q string) ([]fields.Goods, int, error)
	GetGoods(ctx context.Context, userID, goodsID uuid.UUID) (*fields.Goods, error)
	GetGoodsWithSales(ctx context.Context, userID, goodsID uuid.UUID) (*fields.GoodsDetail, error)
	CreateGoods(ctx context.Context, userID uuid.UUID, in fields.GoodsCreate) (*fields.Goods, error)
	UpdateGoods(ctx context.Context, userID, goodsID uuid.UUID, in fields.GoodsUpdate) (*fields.Goods, error)
	DeleteGoods(ctx context.Context, userID, goodsID uuid.UUID) (*fields.Goods, error)

	ListSales(ctx context.Context, userID uuid.UUID, page, limit int, q string) ([]fields.Sales, int, error)
	GetSales(ctx context.Context, userID, salesID uuid.UUID) (*fields.Sales, error)
	CreateSales(ctx context.Context, userID uuid.UUID, in fields.SalesCreate) (*fields.Sales, error)
	UpdateSales(ctx context.Context, userID, salesID uuid.UUID, in fields.SalesUpdate) (*fields.Sales, error)
	DeleteSales(ctx context.Context, userID, salesID uuid.UUID) (*fields.Sales, error)
}

// Forecaster predicts demand for the user's goods.
type Forecaster interface {
	Forecast(ctx context.Context, userID, goodsID uuid.UUID, days int) ([]fields.GoodsForecastData, error)
}

const (
	timeLayout = "02-01-2006 15:04:05"
	dayLayout  = "02-01-2006"
	separator  = "============================================================"
)

var printer = message.NewPrinter(language.Indonesian)

// rupiah formats v with Indonesian thousands separators, e.g. "Rp 15.000".
func rupiah(v float64) string {
	return printer.Sprintf("Rp %v", number.Decimal(math.Round(v), number.MaxFractionDigits(0)))
}

func stamp(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// flexNumber accepts both JSON numbers and numeric strings, which models
// produce interchangeably.
type flexNumber struct {
	Value float64
	Set   bool
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("bukan angka: %q", s)
	}
	n.Value, n.Set = v, true
	return nil
}

func (n flexNumber) Int(def int) int {
	if !n.Set {
		return def
	}
	return int(math.Round(n.Value))
}

func (n flexNumber) IntPtr() *int {
	if !n.Set {
		return nil
	}
	v := int(math.Round(n.Value))
	return &v
}

func (n flexNumber) FloatPtr() *float64 {
	if !n.Set {
		return nil
	}
	v := n.Value
	return &v
}

type toolFunc func(ctx context.Context, userID uuid.UUID, args json.RawMessage) (string, error)

type toolEntry struct {
	def     FunctionDef
	errText string
	run     toolFunc
}

// Toolbox executes the assistant's tools against a user's data.
type Toolbox struct {
	Store    Store
	Forecast Forecaster
	entries  map[string]toolEntry
	order    []string
}

func NewToolbox(store Store, fc Forecaster) *Toolbox {
	t := &Toolbox{Store: store, Forecast: fc, entries: map[string]toolEntry{}}
	t.register()
	return t
}

// Definitions returns the tool schemas in a stable order.
func (t *Toolbox) Definitions() []Tool {
	out := make([]Tool, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, Tool{Type: "function", Function: t.entries[name].def})
	}
	return out
}

// Execute runs one tool. Failures come back as text for the model; only an
// unknown tool name is reported as an error.
func (t *Toolbox) Execute(ctx context.Context, userID uuid.UUID, name, arguments string) (string, error) {
	entry, ok := t.entries[name]
	if !ok {
		return fmt.Sprintf("Error: tool %q tidak dikenal", name), fmt.Errorf("unknown tool %q", name)
	}
	if strings.TrimSpace(arguments) == "" {
		arguments = "{}"
	}
	out, err := entry.run(ctx, userID, json.RawMessage(arguments))
	if err != nil {
		return fmt.Sprintf("Error %s: %s", entry.errText, toolErrorText(err)), nil
	}
	return out, nil
}

func toolErrorText(err error) string {
	e, ok := apperr.As(err)
	if !ok {
		return err.Error()
	}
	if e.Is(apperr.ErrInsufficientStock) {
		return fmt.Sprintf("stok tidak cukup (tersedia %v, diminta %v)", e.Fields["available"], e.Fields["requested"])
	}
	return apperr.Message(e)
}

func schema(props map[string]any, required ...string) map[string]any {
	s := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func prop(kind, desc string) map[string]any {
	return map[string]any{"type": kind, "description": desc}
}

func (t *Toolbox) add(name, desc, errText string, params map[string]any, run toolFunc) {
	t.entries[name] = toolEntry{
		def:     FunctionDef{Name: name, Description: desc, Parameters: params},
		errText: errText,
		run:     run,
	}
	t.order = append(t.order, name)
}

func (t *Toolbox) register() {
	t.add("get_all_goods", "Ambil daftar barang milik user dengan paginasi dan pencarian nama/kategori.", "mengambil data barang",
		schema(map[string]any{
			"limit":  prop("integer", "Jumlah barang per halaman, default 10"),
			"page":   prop("integer", "Nomor halaman, mulai dari 1"),
			"search": prop("string", "Kata kunci nama atau kategori barang"),
		}), t.getAllGoods)
	t.add("get_goods_detail", "Ambil detail satu barang beserta riwayat penjualannya.", "mengambil detail barang",
		schema(map[string]any{"goods_id": prop("string", "UUID barang")}, "goods_id"), t.getGoodsDetail)
	t.add("add_goods", "Tambah barang baru ke inventory.", "menambah barang",
		schema(map[string]any{
			"name":     prop("string", "Nama barang"),
			"category": prop("string", "Kategori barang"),
			"price":    prop("number", "Harga jual per unit dalam Rupiah"),
			"stock":    prop("integer", "Jumlah stok awal"),
		}, "name"), t.addGoods)
	t.add("update_goods", "Ubah data barang. Field yang tidak diisi tidak berubah.", "mengubah barang",
		schema(map[string]any{
			"goods_id": prop("string", "UUID barang"),
			"name":     prop("string", "Nama baru"),
			"category": prop("string", "Kategori baru"),
			"price":    prop("number", "Harga baru"),
			"stock":    prop("integer", "Stok baru"),
		}, "goods_id"), t.updateGoods)
	t.add("delete_goods", "Hapus barang beserta seluruh penjualannya.", "menghapus barang",
		schema(map[string]any{"goods_id": prop("string", "UUID barang")}, "goods_id"), t.deleteGoods)
	t.add("get_all_sales", "Ambil daftar penjualan dengan paginasi dan pencarian nama barang.", "mengambil data penjualan",
		schema(map[string]any{
			"limit":  prop("integer", "Jumlah penjualan per halaman, default 20"),
			"page":   prop("integer", "Nomor halaman, mulai dari 1"),
			"search": prop("string", "Kata kunci nama barang"),
		}), t.getAllSales)
	t.add("get_sales_detail", "Ambil detail satu penjualan.", "mengambil detail penjualan",
		schema(map[string]any{"sales_id": prop("string", "UUID penjualan")}, "sales_id"), t.getSalesDetail)
	t.add("add_sales", "Catat penjualan baru. Stok barang otomatis berkurang.", "mencatat penjualan",
		schema(map[string]any{
			"goods_id":  prop("string", "UUID barang yang terjual"),
			"quantity":  prop("integer", "Jumlah unit terjual"),
			"sale_date": prop("string", "Tanggal penjualan YYYY-MM-DD, kosongkan untuk hari ini"),
		}, "goods_id", "quantity"), t.addSales)
	t.add("update_sales", "Ubah jumlah atau tanggal penjualan. Stok barang ikut disesuaikan.", "mengubah penjualan",
		schema(map[string]any{
			"sales_id":  prop("string", "UUID penjualan"),
			"quantity":  prop("integer", "Jumlah unit baru"),
			"sale_date": prop("string", "Tanggal baru YYYY-MM-DD"),
		}, "sales_id"), t.updateSales)
	t.add("delete_sales", "Hapus penjualan dan kembalikan stok barang.", "menghapus penjualan",
		schema(map[string]any{"sales_id": prop("string", "UUID penjualan")}, "sales_id"), t.deleteSales)
	t.add("get_forecast", "Prediksi penjualan dan saran restock. Tanpa goods_id, 10 barang dengan stok terendah.", "mengambil forecast",
		schema(map[string]any{
			"goods_id": prop("string", "UUID barang, opsional"),
			"days":     prop("integer", "Jumlah hari prediksi 1-30, default 7"),
		}), t.getForecast)
}

func decodeArgs(raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperr.Wrap(err, apperr.ErrBadRequest, "argumen tool tidak valid")
	}
	return nil
}

// validateInput applies the request binding rules to a tool's input.
func validateInput(in any) error {
	err := fields.ValidateStruct(in)
	if err == nil {
		return nil
	}
	fs, ok := fields.ValidationFields(err)
	if !ok {
		return apperr.Wrap(err, apperr.ErrValidation, err.Error())
	}
	parts := make([]string, 0, len(fs))
	for name, rule := range fs {
		parts = append(parts, fmt.Sprintf("%s (%v)", name, rule))
	}
	sort.Strings(parts)
	out := apperr.Wrap(err, apperr.ErrValidation, "input tidak valid: "+strings.Join(parts, ", "))
	out.Fields = fs
	return out
}

func parseID(s, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, apperr.WithMessage(apperr.ErrBadRequest, what+" bukan UUID yang valid")
	}
	return id, nil
}

func writeGoods(b *strings.Builder, g fields.Goods, indent string) {
	category := "Tidak ada kategori"
	if g.Category != nil && *g.Category != "" {
		category = *g.Category
	}
	fmt.Fprintf(b, "%sID: %s\n", indent, g.ID)
	fmt.Fprintf(b, "%sKategori: %s\n", indent, category)
	fmt.Fprintf(b, "%sHarga: %s\n", indent, rupiah(g.Price))
	fmt.Fprintf(b, "%sStok: %d unit\n", indent, g.StockQuantity)
	fmt.Fprintf(b, "%sDibuat: %s\n", indent, stamp(g.CreatedAt))
}

func writeSales(b *strings.Builder, s fields.Sales, indent string) {
	profit := 0.0
	if s.TotalProfit != nil {
		profit = *s.TotalProfit
	}
	fmt.Fprintf(b, "%sID: %s\n", indent, s.ID)
	fmt.Fprintf(b, "%sBarang: %s\n", indent, s.Goods.Name)
	fmt.Fprintf(b, "%sJumlah: %d unit\n", indent, s.Quantity)
	fmt.Fprintf(b, "%sTotal: %s\n", indent, rupiah(profit))
	fmt.Fprintf(b, "%sTanggal: %s\n", indent, stamp(s.SaleDate))
}

type pageArgs struct {
	Limit  flexNumber `json:"limit"`
	Page   flexNumber `json:"page"`
	Search string     `json:"search"`
}

func (t *Toolbox) getAllGoods(ctx context.Context, userID uuid.UUID, raw json.RawMessage) (string, error) {
	var args pageArgs
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	limit, page := args.Limit.Int(10), args.Page.Int(1)
	items, total, err := t.Store.ListGoods(ctx, userID, page, limit, args.Search)
	if err != nil {
		return "", err
	}
	if total == 0 {
		return "Belum ada barang yang tercatat.", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Total Barang: %d\n", total)
	fmt.Fprintf(&b, "Menampilkan halaman %d (Items per halaman: %d)\n", page, limit)
	b.WriteString(separator + "\n")
	for i, g := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, g.Name)
		writeGoods(&b, g, "   ")
		b.WriteString("\n")
	}
	return b.String(), nil
}

type goodsIDArgs struct {
	GoodsID string `json:"goods_id"`
}

func (t *Toolbox) getGoodsDetail(ctx context.Context, userID uuid.UUID, raw json.RawMessage) (string, error) {
	var args goodsIDArgs
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	id, err := parseID(args.GoodsID, "goods_id")
	if err != nil {
		return "", err
	}
	detail, err := t.Store.GetGoodsWithSales(ctx, userID, id)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Detail Barang: %s\n", detail.Name)
	writeGoods(&b, detail.Goods, "")
	fmt.Fprintf(&b, "Riwayat penjualan: %d transaksi\n", len(detail.Sales))
	for i, s := range detail.Sales {
		if i == 10 {
			fmt.Fprintf(&b, "... dan %d transaksi lainnya\n", len(detail.Sales)-10)
			break
		}
		profit := 0.0
		if s.TotalProfit != nil {
			profit = *s.TotalProfit
		}
		fmt.Fprintf(&b, "- %s: %d unit (%s)\n", stamp(s.SaleDate), s.Quantity, rupiah(profit))
	}
	return b.String(), nil
}

type goodsArgs struct {
	GoodsID  string     `json:"goods_id"`
	Name     *string    `json:"name"`
	Category *string    `json:"category"`
	Price    flexNumber `json:"price"`
	Stock    flexNumber `json:"stock"`
}

func (t *Toolbox) addGoods(ctx context.Context, userID uuid.UUID, raw json.RawMessage) (string, error) {
	var args goodsArgs
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	if args.Name == nil || strings.TrimSpace(*args.Name) == "" {
		return "", apperr.WithMessage(apperr.ErrValidation, "nama barang wajib diisi")
	}
	in := fields.GoodsCreate{
		Name:          strings.TrimSpace(*args.Name),
		Category:      args.Category,
		StockQuantity: args.Stock.Int(0),
	}
	if p := args.Price.FloatPtr(); p != nil {
		in.Price = *p
	}
	if err := validateInput(&in); err != nil {
		return "", err
	}
	g, err := t.Store.CreateGoods(ctx, userID, in)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Barang berhasil ditambahkan: %s\n", g.Name)
	writeGoods(&b, *g, "")
	return b.String(), nil
}

func (t *Toolbox) updateGoods(ctx context.Context, userID uuid.UUID, raw json.RawMessage) (string, error) {
	var args goodsArgs
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	id, err := parseID(args.GoodsID, "goods_id")
	if err != nil {
		return "", err
	}
	in := fields.GoodsUpdate{
		Name:          args.Name,
		Category:      args.Category,
		Price:         args.Price.FloatPtr(),
		StockQuantity: args.Stock.IntPtr(),
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if err := validateInput(&in); err != nil {
		return "", err
	}
	g, err := t.Store.UpdateGoods(ctx, userID, id, in)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if in.Empty() {
		fmt.Fprintf(&b, "Tidak ada perubahan pada barang %s\n", g.Name)
	} else {
		fmt.Fprintf(&b, "Barang berhasil diperbarui: %s\n", g.Name)
	}
	writeGoods(&b, *g, "")
	return b.String(), nil
}

func (t *Toolbox) deleteGoods(ctx context.Context, userID uuid.UUID, raw json.RawMessage) (string, error) {
	var args goodsIDArgs
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	id, err := parseID(args.GoodsID, "goods_id")
	if err != nil {
		return "", err
	}
	g, err := t.Store.DeleteGoods(ctx, userID, id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Barang '%s' berhasil dihapus beserta riwayat penjualannya.", g.Name), nil
}

func (t *Toolbox) getAllSales(ctx context.Context, userID uuid.UUID, raw json.RawMessage) (string, error) {
	var args pageArgs
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	limit, page := args.Limit.Int(20), args.Page.Int(1)
	items, total, err := t.Store.ListSales(ctx, userID, page, limit, args.Search)
	if err != nil {
		return "", err
	}
	if total == 0 {
		return "Belum ada penjualan yang tercatat.", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Total Penjualan: %d\n", total)
	fmt.Fprintf(&b, "Menampilkan halaman %d (Items per halaman: %d)\n", page, limit)
	b.WriteString(separator + "\n")
	for i, s := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s.Goods.Name)
		writeSales(&b, s, "   ")
		b.WriteString("\n")
	}
	return b.String(), nil
}

type salesArgs struct {
	SalesID  string     `json:"sales_id"`
	GoodsID  string     `json:"goods_id"`
	Quantity flexNumber `json:"quantity"`
	SaleDate *string    `json:"sale_date"`
}

func (t *Toolbox) getSalesDetail(ctx context.Context, userID uuid.UUID, raw json.RawMessage) (string, error) {
	var args salesArgs
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	id, err := parseID(args.SalesID, "sales_id")
	if err != nil {
		return "", err
	}
	s, err := t.Store.GetSales(ctx, userID, id)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("Detail Penjualan\n")
	writeSales(&b, *s, "")
	return b.String(), nil
}

func (t *Toolbox) remainingStock(ctx context.Context, userID, goodsID uuid.UUID) string {
	g, err := t.Store.GetGoods(ctx, userID, goodsID)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("Sisa stok %s: %d unit\n", g.Name, g.StockQuantity)
}

func (t *Toolbox) addSales(ctx context.Context, userID uuid.UUID, raw json.RawMessage) (string, error) {
	var args salesArgs
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	goodsID, err := parseID(args.GoodsID, "goods_id")
	if err != nil {
		return "", err
	}
	qty := args.Quantity.Int(0)
	if qty <= 0 {
		return "", apperr.WithMessage(apperr.ErrValidation, "jumlah penjualan harus lebih dari 0")
	}
	in := fields.SalesCreate{GoodsID: goodsID, Quantity: qty}
	if args.SaleDate != nil {
		in.SaleDate = strings.TrimSpace(*args.SaleDate)
	}
	if err := validateInput(&in); err != nil {
		return "", err
	}
	s, err := t.Store.CreateSales(ctx, userID, in)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("Penjualan berhasil dicatat!\n")
	writeSales(&b, *s, "")
	b.WriteString(t.remainingStock(ctx, userID, goodsID))
	return b.String(), nil
}

func (t *Toolbox) updateSales(ctx context.Context, userID uuid.UUID, raw json.RawMessage) (string, error) {
	var args salesArgs
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	id, err := parseID(args.SalesID, "sales_id")
	if err != nil {
		return "", err
	}
	in := fields.SalesUpdate{Quantity: args.Quantity.IntPtr(), SaleDate: args.SaleDate}
	if in.Quantity != nil && *in.Quantity <= 0 {
		return "", apperr.WithMessage(apperr.ErrValidation, "jumlah penjualan harus lebih dari 0")
	}
	if err := validateInput(&in); err != nil {
		return "", err
	}
	s, err := t.Store.UpdateSales(ctx, userID, id, in)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("Penjualan berhasil diperbarui!\n")
	writeSales(&b, *s, "")
	b.WriteString(t.remainingStock(ctx, userID, s.GoodsID))
	return b.String(), nil
}

func (t *Toolbox) deleteSales(ctx context.Context, userID uuid.UUID, raw json.RawMessage) (string, error) {
	var args salesArgs
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	id, err := parseID(args.SalesID, "sales_id")
	if err != nil {
		return "", err
	}
	s, err := t.Store.DeleteSales(ctx, userID, id)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Penjualan %s berhasil dihapus, %d unit dikembalikan ke stok.\n", s.Goods.Name, s.Quantity)
	b.WriteString(t.remainingStock(ctx, userID, s.GoodsID))
	return b.String(), nil
}

type forecastArgs struct {
	GoodsID string     `json:"goods_id"`
	Days    flexNumber `json:"days"`
}

func (t *Toolbox) getForecast(ctx context.Context, userID uuid.UUID, raw json.RawMessage) (string, error) {
	var args forecastArgs
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	goodsID := uuid.Nil
	if strings.TrimSpace(args.GoodsID) != "" {
		id, err := parseID(args.GoodsID, "goods_id")
		if err != nil {
			return "", err
		}
		goodsID = id
	}
	days := forecast.ClampHorizon(args.Days.Int(forecast.DefaultHorizonDays))
	data, err := t.Forecast.Forecast(ctx, userID, goodsID, days)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "Belum ada barang untuk diprediksi.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Forecast penjualan %d hari ke depan\n", days)
	b.WriteString(separator + "\n")
	for i, g := range data {
		fmt.Fprintf(&b, "%d. %s (stok %d unit)\n", i+1, g.Name, g.StockQuantity)
		if !g.IsForecasted {
			b.WriteString("   Data penjualan belum cukup untuk prediksi.\n\n")
			continue
		}
		total := 0
		for _, f := range g.Forecast {
			day, err := time.Parse(fields.DateLayout, f.Date)
			label := f.Date
			if err == nil {
				label = day.Format(dayLayout)
			}
			fmt.Fprintf(&b, "   %s: %d unit (min %d, maks %d)\n", label, f.TotalSales, f.MinSales, f.MaxSales)
			total += f.TotalSales
		}
		fmt.Fprintf(&b, "   Perkiraan total terjual: %d unit\n", total)
		fmt.Fprintf(&b, "   Saran restock: %d unit\n\n", forecast.RestockQuantity(g.Forecast, g.StockQuantity))
	}
	return b.String(), nil
}
