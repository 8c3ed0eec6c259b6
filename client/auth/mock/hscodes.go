package mock

import (
	"encoding/csv"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/viant/brokerage/schema"
)

const (
	defaultPageSize = 50
	maxPageSize     = 600
	maxRowErrors    = 200
)

// HSCodePage is a paginated hs code listing
type HSCodePage struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  []schema.HSCode `json:"results"`
}

// AddHSCode stores an hs code and returns its id
func (s *Service) AddHSCode(code, nameFa, nameEn string) int {
	id := int(s.nextHSCodeID.Add(1))
	s.hsCodes.Put(id, &schema.HSCode{ID: id, Code: code, GoodsNameFa: nameFa, GoodsNameEn: nameEn, Season: seasonOf(code)})
	return id
}

// HSCodeID returns id of the code
func (s *Service) HSCodeID(code string) (int, bool) {
	for _, item := range s.hsCodes.Values() {
		if item.Code == code {
			return item.ID, true
		}
	}
	return 0, false
}

func (s *Service) listHSCodesHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	search := strings.TrimSpace(query.Get("search"))
	var matched []schema.HSCode
	for _, item := range s.hsCodes.Values() {
		if search == "" || strings.Contains(item.Code, search) || containsFold(item.GoodsNameFa, search) || containsFold(item.GoodsNameEn, search) {
			matched = append(matched, *item)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Code < matched[j].Code })

	pageSize := positiveInt(query.Get("page_size"), defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := positiveInt(query.Get("page"), 1)
	start := (page - 1) * pageSize
	if start > len(matched) && len(matched) > 0 {
		writeDetail(w, http.StatusNotFound, "Invalid page.")
		return
	}
	end := min(start+pageSize, len(matched))
	ret := &HSCodePage{Count: len(matched), Results: []schema.HSCode{}}
	if start < end {
		ret.Results = matched[start:end]
	}
	if end < len(matched) {
		ret.Next = pageURL(r, page+1)
	}
	if page > 1 {
		ret.Previous = pageURL(r, page-1)
	}
	writeJSON(w, http.StatusOK, ret)
}

func pageURL(r *http.Request, page int) *string {
	u := url.URL{Scheme: "http", Host: r.Host, Path: r.URL.Path}
	query := r.URL.Query()
	query.Set("page", strconv.Itoa(page))
	u.RawQuery = query.Encode()
	ret := u.String()
	return &ret
}

func positiveInt(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func (s *Service) getHSCodeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	item, ok := s.hsCodes.Get(id)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// seasonOf derives season code from the hs chapter, "01012100" -> "1"
func seasonOf(code string) string {
	if len(code) < 2 {
		return ""
	}
	chapter, err := strconv.Atoi(code[:2])
	if err != nil {
		return ""
	}
	return strconv.Itoa(chapter)
}

func headingOf(code string) string {
	if len(code) < 4 {
		return ""
	}
	if _, err := strconv.Atoi(code[:4]); err != nil {
		return ""
	}
	return code[:4]
}

type importRow struct {
	index  int
	values map[string]string
}

var importColumns = map[schema.ImportTarget][]string{
	schema.ImportSeasons:  {"code"},
	schema.ImportHeadings: {"code", "season_code"},
	schema.ImportHSCodes:  {"code", "goods_name_fa", "goods_name_en", "profit"},
}

var importModels = map[schema.ImportTarget]string{
	schema.ImportSeasons:  "Season",
	schema.ImportHeadings: "Heading",
	schema.ImportHSCodes:  "HSCode",
}

func (s *Service) importHandler(w http.ResponseWriter, r *http.Request) {
	if !isAdmin(currentUser(r.Context())) {
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}
	target := schema.ImportTarget(chi.URLParam(r, "target"))
	if !target.IsValid() {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "file is required (csv/xlsx).")
		return
	}
	defer file.Close()
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		writeDetail(w, http.StatusBadRequest, "Unsupported file type. Upload .csv or .xlsx")
		return
	}
	switch strings.ToLower(r.FormValue("dry_run")) {
	case "1", "true", "yes", "y":
		s.importRows(w, target, file, true)
	default:
		s.importRows(w, target, file, false)
	}
}

func (s *Service) importRows(w http.ResponseWriter, target schema.ImportTarget, file io.Reader, dryRun bool) {
	headers, rows, err := readCSV(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	var missing []string
	for _, column := range importColumns[target] {
		if !contains(headers, column) {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"detail": "Missing required columns.", "missing": missing, "received": headers})
		return
	}

	s.writes.Lock()
	defer s.writes.Unlock()
	report := &schema.ImportReport{Model: importModels[target], DryRun: dryRun, TotalRows: len(rows), RowErrors: []schema.RowError{}}
	var apply []func()
	for _, row := range rows {
		code := row.values["code"]
		if code == "" {
			report.Skipped++
			continue
		}
		fail := func(message string) {
			report.Errors++
			if len(report.RowErrors) < maxRowErrors {
				report.RowErrors = append(report.RowErrors, schema.RowError{Row: row.index, Code: code, Error: message})
			}
		}
		switch target {
		case schema.ImportSeasons:
			_, exists := s.seasons.Get(code)
			s.countUpsert(report, exists)
			apply = append(apply, func() { s.seasons.Put(code, row.values["description"]) })
		case schema.ImportHeadings:
			season := row.values["season_code"]
			if season == "" {
				report.Skipped++
				continue
			}
			if _, ok := s.seasons.Get(season); !ok {
				fail("season_code '" + season + "' not found")
				continue
			}
			_, exists := s.headings.Get(code)
			s.countUpsert(report, exists)
			apply = append(apply, func() { s.headings.Put(code, season) })
		case schema.ImportHSCodes:
			season := seasonOf(code)
			if season == "" {
				fail("Invalid HS code for season derivation")
				continue
			}
			if _, ok := s.seasons.Get(season); !ok {
				fail("Derived season_code '" + season + "' not found")
				continue
			}
			id, exists := s.HSCodeID(code)
			s.countUpsert(report, exists)
			values := row.values
			apply = append(apply, func() {
				if !exists {
					id = int(s.nextHSCodeID.Add(1))
				}
				s.hsCodes.Put(id, &schema.HSCode{
					ID:          id,
					Code:        code,
					GoodsNameFa: values["goods_name_fa"],
					GoodsNameEn: values["goods_name_en"],
					Profit:      values["profit"],
					SUQ:         values["suq"],
					Season:      season,
				})
				if heading := headingOf(code); heading != "" {
					s.headings.PutIfAbsent(heading, season)
				}
			})
		}
	}
	if !dryRun {
		for _, fn := range apply {
			fn()
		}
	}
	status := http.StatusOK
	if report.Errors > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, report)
}

func (s *Service) countUpsert(report *schema.ImportReport, exists bool) {
	if exists {
		report.Updated++
	} else {
		report.Created++
	}
}

// readCSV returns normalized headers and non blank rows, row index 1 is the header
func readCSV(reader io.Reader) ([]string, []importRow, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	headers := make([]string, len(records[0]))
	for i, header := range records[0] {
		headers[i] = normalizeHeader(header)
	}
	var rows []importRow
	for i, record := range records[1:] {
		values := map[string]string{}
		blank := true
		for j, header := range headers {
			if j < len(record) {
				values[header] = strings.TrimSpace(record[j])
				blank = blank && values[header] == ""
			}
		}
		if !blank {
			rows = append(rows, importRow{index: i + 2, values: values})
		}
	}
	return headers, rows, nil
}

// normalizeHeader turns "Season Code" into "season_code"
func normalizeHeader(header string) string {
	header = strings.TrimPrefix(strings.TrimSpace(header), "\uFEFF")
	header = strings.ToLower(header)
	return strings.NewReplacer(" ", "_", "-", "_").Replace(header)
}

func contains(values []string, value string) bool {
	for _, candidate := range values {
		if candidate == value {
			return true
		}
	}
	return false
}
