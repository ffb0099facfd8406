package category

// Section groups categories under one dashboard page.
type Section struct {
	Key        string   `json:"key"`
	Title      string   `json:"title"`
	Path       string   `json:"path"`
	Categories []string `json:"categories"`
}

// Registry holds every category and section known to the application.
type Registry struct {
	order      []string
	categories map[string]*Category
	sections   []Section
}

// NewRegistry builds a registry from explicit definitions. Sections may only
// reference categories present in cats.
func NewRegistry(cats []Category, sections []Section) *Registry {
	r := &Registry{categories: make(map[string]*Category, len(cats))}
	for i := range cats {
		c := cats[i]
		r.order = append(r.order, c.Key)
		r.categories[c.Key] = &c
	}
	for _, s := range sections {
		if s.Path == "" {
			s.Path = "/dashboard/" + s.Key
		}
		r.sections = append(r.sections, s)
	}
	return r
}

// Lookup returns the category registered under key.
func (r *Registry) Lookup(key string) (*Category, error) {
	c, ok := r.categories[key]
	if !ok {
		return nil, ErrUnknownCategory
	}
	return c, nil
}

// All returns every category in registration order.
func (r *Registry) All() []*Category {
	out := make([]*Category, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.categories[k])
	}
	return out
}

// Sections returns the sidebar sections in display order.
func (r *Registry) Sections() []Section {
	out := make([]Section, len(r.sections))
	copy(out, r.sections)
	return out
}

// Section returns one section by key.
func (r *Registry) Section(key string) (Section, error) {
	for _, s := range r.sections {
		if s.Key == key {
			return s, nil
		}
	}
	return Section{}, ErrUnknownSection
}

// SectionCategories resolves the categories of a section.
func (r *Registry) SectionCategories(key string) ([]*Category, error) {
	s, err := r.Section(key)
	if err != nil {
		return nil, err
	}
	out := make([]*Category, 0, len(s.Categories))
	for _, k := range s.Categories {
		if c, ok := r.categories[k]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// SectionsOf lists the keys of every section that shows the category.
func (r *Registry) SectionsOf(categoryKey string) []string {
	var out []string
	for _, s := range r.sections {
		for _, k := range s.Categories {
			if k == categoryKey {
				out = append(out, s.Key)
				break
			}
		}
	}
	return out
}

var (
	jenisSuratOptions = []string{"internal", "pihak3"}
	bagianOptions     = []string{"sdm", "akuntansi", "tanaman", "teknik", "pengadaan", "sekhum"}
	buktiKasOptions   = []string{"penerimaan-kas", "pengeluaran-kas"}
)

func personnelDoc(key, title, table string) Category {
	return Category{
		Key:    key,
		Title:  title,
		Table:  table,
		Folder: "personalia-umum/" + key,
		Fields: []Field{
			{Name: "jenis_dokumen", Label: "Jenis Dokumen", Type: Text, Required: true},
			{Name: "tanggal", Label: "Tanggal", Type: Date, Required: true},
		},
		SubjectFields: []string{"jenis_dokumen"},
		SearchColumns: []string{"jenis_dokumen"},
	}
}

// Default returns the SIPETA archive layout.
func Default() *Registry {
	cats := []Category{
		{
			Key:    "surat-masuk",
			Title:  "Surat Masuk",
			Table:  "surat_masuk",
			Folder: "surat-masuk",
			Fields: []Field{
				{Name: "nomor_surat", Label: "Nomor Surat", Type: Text, Required: true},
				{Name: "perihal", Label: "Perihal", Type: Text, Required: true},
				{Name: "disposisi_ke", Label: "Disposisi Ke", Type: Text},
				{Name: "tanggal_surat", Label: "Tanggal Surat", Type: Date, Required: true},
				{Name: "jenis_surat", Label: "Jenis Surat", Type: Select, Required: true, Options: jenisSuratOptions},
				{Name: "instansi_pengirim", Label: "Instansi Pengirim", Type: Text, Required: true},
				{Name: "diterima_tanggal", Label: "Diterima Tanggal", Type: Date, Required: true},
				{Name: "bagian", Label: "Bagian", Type: Select, Required: true, Options: bagianOptions},
			},
			SubjectFields: []string{"nomor_surat"},
			SearchColumns: []string{"perihal", "nomor_surat", "instansi_pengirim"},
			UniqueColumns: []string{"nomor_surat"},
			Deletable:     true,
		},
		{
			Key:    "surat-keluar",
			Title:  "Surat Keluar",
			Table:  "surat_keluar",
			Folder: "surat-keluar",
			Fields: []Field{
				{Name: "nomor_surat", Label: "Nomor Surat", Type: Text, Required: true},
				{Name: "perihal", Label: "Perihal/Hal", Type: Text, Required: true},
				{Name: "tanggal_surat", Label: "Tanggal Surat", Type: Date, Required: true},
				{Name: "jenis_surat", Label: "Jenis Surat", Type: Select, Required: true, Options: jenisSuratOptions},
				{Name: "tujuan", Label: "Tujuan", Type: Text, Required: true},
			},
			SubjectFields: []string{"nomor_surat"},
			SearchColumns: []string{"perihal", "nomor_surat", "tujuan"},
			UniqueColumns: []string{"nomor_surat"},
			Deletable:     true,
		},
		{
			Key:    "bukti-kas-bank",
			Title:  "Bukti Kas & Bank",
			Table:  "bukti_kas_bank",
			Folder: "tata-usaha-keuangan/bukti-kas-bank",
			Fields: []Field{
				{Name: "bukti_dokumen", Label: "Bukti Dokumen", Type: Select, Required: true, Options: buktiKasOptions},
				{Name: "nomor_voucher", Label: "Nomor Voucher", Type: Text, Required: true},
				{Name: "uraian_perihal", Label: "Uraian/Perihal", Type: TextArea},
				{Name: "penerima", Label: "Penerima", Type: Text},
				{Name: "nominal", Label: "Nominal", Type: Number},
				{Name: "dibuat_oleh", Label: "Dibuat Oleh", Type: Text},
				{Name: "tanggal", Label: "Tanggal", Type: Date},
			},
			SubjectFields: []string{"nomor_voucher"},
			SearchColumns: []string{"nomor_voucher", "uraian_perihal", "penerima"},
			UniqueColumns: []string{"nomor_voucher"},
		},
		{
			Key:    "bukti-penerimaan-barang",
			Title:  "Bukti Penerimaan Barang",
			Table:  "bukti_penerimaan_barang",
			Folder: "tata-usaha-keuangan/bukti-penerimaan-barang",
			Fields: []Field{
				{Name: "diterima_dari", Label: "Diterima Dari", Type: Text, Required: true},
				{Name: "nomor", Label: "Nomor", Type: Text},
				{Name: "tanggal", Label: "Tanggal", Type: Date},
				{Name: "jenis_barang", Label: "Jenis Barang", Type: Text, Required: true},
			},
			SubjectFields: []string{"nomor"},
			SearchColumns: []string{"nomor", "diterima_dari", "jenis_barang"},
		},
		{
			Key:    "bukti-pengeluaran-barang",
			Title:  "Bukti Pengeluaran Barang",
			Table:  "bukti_pengeluaran_barang",
			Folder: "tata-usaha-keuangan/bukti-pengeluaran-barang",
			Fields: []Field{
				{Name: "kebun", Label: "Kebun", Type: Text, Required: true},
				{Name: "bagian", Label: "Bagian", Type: Text, Required: true},
				{Name: "nomor", Label: "Nomor", Type: Text},
				{Name: "tanggal_diminta", Label: "Tanggal Diminta", Type: Date},
				{Name: "jenis_barang", Label: "Jenis Barang", Type: Text},
			},
			SubjectFields: []string{"nomor"},
			SearchColumns: []string{"nomor", "kebun", "jenis_barang"},
		},
		{
			Key:    "memorandum",
			Title:  "Memorandum",
			Table:  "memorandum",
			Folder: "tata-usaha-keuangan/memorandum",
			Fields: []Field{
				{Name: "nomor_surat", Label: "Nomor Surat", Type: Text, Required: true},
				{Name: "dari", Label: "Dari", Type: Text, Required: true},
				{Name: "tanggal", Label: "Tanggal", Type: Date},
				{Name: "perihal", Label: "Perihal", Type: TextArea},
			},
			SubjectFields: []string{"nomor_surat"},
			SearchColumns: []string{"nomor_surat", "dari", "perihal"},
		},
		{
			Key:    "arsip-dokumen-lain",
			Title:  "Arsip Dokumen Lain",
			Table:  "arsip_dokumen_lain",
			Folder: "tata-usaha-keuangan/arsip-dokumen-lain",
			SectionFolders: map[string]string{
				"personalia-umum": "personalia-umum/arsip-dokumen-lain",
			},
			Fields: []Field{
				{Name: "jenis_dokumen", Label: "Jenis Dokumen", Type: Text, Required: true},
				{Name: "nomor", Label: "Nomor", Type: Text},
				{Name: "tanggal", Label: "Tanggal", Type: Date, Required: true},
				{Name: "perihal", Label: "Keterangan", Type: TextArea},
			},
			SubjectFields: []string{"jenis_dokumen", "nomor"},
			SearchColumns: []string{"jenis_dokumen", "nomor", "perihal"},
		},
		personnelDoc("dokumen-ispo", "Dokumen ISPO", "dokumen_ispo"),
		personnelDoc("dokumen-rspo", "Dokumen RSPO", "dokumen_rspo"),
		personnelDoc("database-karyawan", "Database Karyawan", "database_karyawan"),
		personnelDoc("database-cuti", "Database Cuti", "database_cuti"),
		{
			Key:    "memorandum-personalia",
			Title:  "Memorandum",
			Table:  "memorandum_personalia",
			Folder: "personalia-umum/memorandum",
			Fields: []Field{
				{Name: "nomor_surat", Label: "Nomor Surat", Type: Text, Required: true},
				{Name: "dari", Label: "Dari", Type: Text, Required: true},
				{Name: "tanggal", Label: "Tanggal", Type: Date, Required: true},
				{Name: "perihal", Label: "Perihal", Type: TextArea},
			},
			SubjectFields: []string{"jenis_dokumen", "nomor_surat"},
			SearchColumns: []string{"nomor_surat", "dari", "perihal"},
		},
	}

	sections := []Section{
		{Key: "surat-masuk", Title: "Surat Masuk", Categories: []string{"surat-masuk"}},
		{Key: "surat-keluar", Title: "Surat Keluar", Categories: []string{"surat-keluar"}},
		{Key: "surat-intern", Title: "Surat Intern"},
		{Key: "tata-usaha-keuangan", Title: "Tata Usaha & Keuangan", Categories: []string{
			"bukti-kas-bank", "bukti-penerimaan-barang", "bukti-pengeluaran-barang", "memorandum", "arsip-dokumen-lain",
		}},
		{Key: "personalia-umum", Title: "Personalia & Umum", Categories: []string{
			"dokumen-ispo", "dokumen-rspo", "database-karyawan", "database-cuti", "memorandum-personalia", "arsip-dokumen-lain",
		}},
		{Key: "tanaman", Title: "Tanaman"},
		{Key: "teknik-transport", Title: "Teknik & Transport"},
	}

	return NewRegistry(cats, sections)
}
