package employeeimport

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"github.com/iota-uz/hrm-import/modules/hrm/domain/aggregates/employee"
)

var (
	parentheticalRe = regexp.MustCompile(`\([^)]*\)`)
	nonSlugRe       = regexp.MustCompile(`[^a-z0-9]+`)
	keySeparators   = strings.NewReplacer("_", " ", "-", " ", ".", " ", "/", " ", "*", " ", ":", " ")
)

// NormalizeHeader turns a raw header into its comparison key: parenthetical
// hints such as "(Dropdown: ...)" or "(readonly)" are dropped, whitespace is
// collapsed and the result is lower-cased.
func NormalizeHeader(header string) string {
	s := norm.NFKC.String(header)
	s = parentheticalRe.ReplaceAllString(s, " ")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func lookupKey(header string) string {
	return strings.Join(strings.Fields(keySeparators.Replace(NormalizeHeader(header))), " ")
}

func slug(header string) string {
	return strings.Trim(nonSlugRe.ReplaceAllString(NormalizeHeader(header), "_"), "_")
}

// baseSynonyms are human header variants seen in HR exports. Canonical field
// names and the mapping definition's own headers are added on top.
var baseSynonyms = map[string]string{
	"employee no":          "employee_id",
	"employee number":      "employee_id",
	"emp id":               "employee_id",
	"nip":                  "employee_id",
	"id karyawan":          "employee_id",
	"name":                 "full_name",
	"nama":                 "full_name",
	"nama lengkap":         "full_name",
	"employee name":        "full_name",
	"sex":                  "gender",
	"jenis kelamin":        "gender",
	"dob":                  "date_of_birth",
	"birth date":           "date_of_birth",
	"tanggal lahir":        "date_of_birth",
	"tempat lahir":         "place_of_birth",
	"birth place":          "place_of_birth",
	"kewarganegaraan":      "nationality",
	"agama":                "religion",
	"status perkawinan":    "marital_status",
	"marital":              "marital_status",
	"golongan darah":       "blood_type",
	"nik":                  "national_id_number",
	"ktp":                  "national_id_number",
	"npwp":                 "tax_number",
	"tax id":               "tax_number",
	"no paspor":            "passport_number",
	"status":               "employment_status",
	"departemen":           "department",
	"divisi":               "division",
	"jabatan":              "position_title",
	"position":             "position_title",
	"job title":            "position_title",
	"grade":                "job_level",
	"level":                "job_level",
	"join date":            "join_date",
	"hire date":            "join_date",
	"start date":           "join_date",
	"tanggal masuk":        "join_date",
	"end of contract":      "contract_end_date",
	"resign date":          "termination_date",
	"salary":               "basic_salary",
	"gaji pokok":           "basic_salary",
	"rehire":               "is_rehire",
	"bank":                 "bank_name",
	"cabang bank":          "bank_branch",
	"account number":       "bank_account_number",
	"no rekening":          "bank_account_number",
	"account name":         "bank_account_holder",
	"account holder":       "bank_account_holder",
	"bpjs kesehatan":       "health_insurance_number",
	"bpjs ketenagakerjaan": "social_security_number",
	"email address":        "email",
	"e mail":               "email",
	"phone":                "phone_number",
	"mobile":               "phone_number",
	"no hp":                "phone_number",
	"alamat":               "address",
	"kota":                 "city",
	"kode pos":             "postal_code",
	"emergency contact":    "emergency_contact_name",
	"emergency phone":      "emergency_contact_phone",
	"probation end":        "probation_end_date",
	"previous company":     "previous_employer",
	"passport expiry":      "passport_expiry_date",
	"kitas":                "work_permit_number",
	"kitas number":         "work_permit_number",
	"work permit":          "work_permit_number",
	"kitas expiry":         "work_permit_expiry_date",
	"visa":                 "visa_type",
}

const (
	fuzzyMinKeyLength = 5
	fuzzyMaxDistance  = 2
)

// HeaderMapping resolves uploaded headers to canonical fields. It is read-only
// once built.
type HeaderMapping struct {
	byKey map[string]string
	keys  []string
}

// NewHeaderMapping layers overrides on top of the base synonym table and the
// canonical field names. Later layers win.
func NewHeaderMapping(overrides ...map[string]string) HeaderMapping {
	m := HeaderMapping{byKey: map[string]string{}}
	for _, f := range employee.Fields() {
		m.byKey[lookupKey(f.Name)] = f.Name
	}
	for k, v := range baseSynonyms {
		m.byKey[lookupKey(k)] = v
	}
	for _, layer := range overrides {
		for k, v := range layer {
			if _, ok := employee.LookupField(v); ok {
				m.byKey[lookupKey(k)] = v
			}
		}
	}
	m.keys = make([]string, 0, len(m.byKey))
	for k := range m.byKey {
		m.keys = append(m.keys, k)
	}
	sort.Strings(m.keys)
	return m
}

func (m HeaderMapping) Resolve(header string) FieldRef {
	key := lookupKey(header)
	if key == "" {
		return Unmapped("")
	}
	if field, ok := m.byKey[key]; ok {
		return Mapped(field)
	}
	if field, ok := m.fuzzy(key); ok {
		return Mapped(field)
	}
	return Unmapped(slug(header))
}

// fuzzy accepts the closest known key when it is unambiguous.
func (m HeaderMapping) fuzzy(key string) (string, bool) {
	if len(key) < fuzzyMinKeyLength {
		return "", false
	}
	ranks := fuzzy.RankFindNormalizedFold(key, m.keys)
	if len(ranks) == 0 {
		return "", false
	}
	sort.Sort(ranks)
	best := ranks[0]
	if best.Distance > fuzzyMaxDistance {
		return "", false
	}
	field := m.byKey[best.Target]
	for _, r := range ranks[1:] {
		if r.Distance != best.Distance {
			break
		}
		if m.byKey[r.Target] != field {
			return "", false
		}
	}
	return field, true
}

// ColumnPlan is the mapping of every uploaded column, in upload order.
type ColumnPlan struct {
	Headers []string
	Refs    []FieldRef
	// Ignored marks computed template columns whose values are never imported.
	Ignored []bool
}

func (p ColumnPlan) HasField(field string) bool {
	for i, r := range p.Refs {
		if r.IsMapped() && r.Field() == field && !p.Ignored[i] {
			return true
		}
	}
	return false
}

// MappedFields lists the canonical fields the upload carries, in upload order.
// Ignored columns are excluded.
func (p ColumnPlan) MappedFields() []string {
	seen := make(map[string]struct{}, len(p.Refs))
	var out []string
	for i, r := range p.Refs {
		if !r.IsMapped() || p.Ignored[i] {
			continue
		}
		if _, dup := seen[r.Field()]; dup {
			continue
		}
		seen[r.Field()] = struct{}{}
		out = append(out, r.Field())
	}
	return out
}

// MapColumns resolves every header and logs unmapped ones as renames.
func (m HeaderMapping) MapColumns(ctx context.Context, headers []string, computed map[string]bool) ColumnPlan {
	plan := ColumnPlan{
		Headers: headers,
		Refs:    make([]FieldRef, len(headers)),
		Ignored: make([]bool, len(headers)),
	}
	for i, h := range headers {
		plan.Refs[i] = m.Resolve(h)
		plan.Ignored[i] = computed[NormalizeHeader(h)]
		if !plan.Refs[i].IsMapped() && plan.Refs[i].Slug() != "" && !plan.Ignored[i] {
			logWithFields(ctx, logrus.InfoLevel, "unmapped header kept as slug", logrus.Fields{
				"header": h,
				"slug":   plan.Refs[i].Slug(),
			})
		}
	}
	return plan
}
