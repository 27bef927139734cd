package models

import "testing"

func TestClassifyURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    Store
		wantErr bool
	}{
		{
			name: "carrefour product page",
			url:  "https://mercado.carrefour.com.br/arroz-branco-tio-joao-1kg-123456/p",
			want: StoreCarrefour,
		},
		{
			name: "zaffari product page",
			url:  "https://www.zaffari.com.br/queijo-mussarela-fatiado-president-150g-1008729/p",
			want: StoreZaffari,
		},
		{
			name: "zaffari without www",
			url:  "https://zaffari.com.br/cafe-em-graos-500g-100200/p",
			want: StoreZaffari,
		},
		{
			name: "amazon dp URL",
			url:  "https://www.amazon.com.br/dp/B0ABCDEF12",
			want: StoreAmazon,
		},
		{
			name:    "unknown retailer",
			url:     "https://www.magazineluiza.com.br/produto/123",
			wantErr: true,
		},
		{
			name:    "empty string",
			url:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ClassifyURL(tt.url)
			if tt.wantErr {
				if err != ErrUnrecognizedURL {
					t.Fatalf("ClassifyURL(%q) error = %v, want ErrUnrecognizedURL", tt.url, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ClassifyURL(%q) unexpected error: %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("ClassifyURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestExtractSKU(t *testing.T) {
	tests := []struct {
		name  string
		store Store
		url   string
		want  string
		ok    bool
	}{
		{
			name:  "carrefour slug SKU",
			store: StoreCarrefour,
			url:   "https://mercado.carrefour.com.br/arroz-tio-joao-1kg-7891234/p",
			want:  "7891234",
			ok:    true,
		},
		{
			name:  "zaffari slug SKU",
			store: StoreZaffari,
			url:   "https://www.zaffari.com.br/queijo-president-150g-1008729/p",
			want:  "1008729",
			ok:    true,
		},
		{
			name:  "bare numeric segment",
			store: StoreCarrefour,
			url:   "https://mercado.carrefour.com.br/7891234/p",
			want:  "7891234",
			ok:    true,
		},
		{
			name:  "amazon dp",
			store: StoreAmazon,
			url:   "https://www.amazon.com.br/dp/B0ABCDEF12?ref=something",
			want:  "B0ABCDEF12",
			ok:    true,
		},
		{
			name:  "amazon gp product",
			store: StoreAmazon,
			url:   "https://www.amazon.com.br/gp/product/b0abcdef12",
			want:  "B0ABCDEF12",
			ok:    true,
		},
		{
			name:  "amazon asin query param",
			store: StoreAmazon,
			url:   "https://www.amazon.com.br/exec/obidos?asin=B012345678",
			want:  "B012345678",
			ok:    true,
		},
		{
			name:  "no identifier",
			store: StoreCarrefour,
			url:   "https://mercado.carrefour.com.br/ofertas",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractSKU(tt.store, tt.url)
			if ok != tt.ok {
				t.Fatalf("ExtractSKU(%v, %q) ok = %v, want %v", tt.store, tt.url, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("ExtractSKU(%v, %q) = %q, want %q", tt.store, tt.url, got, tt.want)
			}
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	got := NormalizeURL(StoreAmazon, "https://www.amazon.com.br/Some-Product-Name/dp/B0ABCDEF12/ref=sr_1_1?keywords=x")
	want := "https://www.amazon.com.br/dp/B0ABCDEF12"
	if got != want {
		t.Errorf("NormalizeURL amazon = %q, want %q", got, want)
	}

	got = NormalizeURL(StoreZaffari, "zaffari.com.br/produto-123/p")
	want = "https://zaffari.com.br/produto-123/p"
	if got != want {
		t.Errorf("NormalizeURL schemeless = %q, want %q", got, want)
	}
}

func TestValidateURL(t *testing.T) {
	if !ValidateURL(StoreCarrefour, "https://mercado.carrefour.com.br/arroz-123/p") {
		t.Error("expected valid carrefour URL to validate")
	}
	if ValidateURL(StoreCarrefour, "https://mercado.carrefour.com.br.evil.com/arroz-123/p") {
		t.Error("lookalike host must not validate")
	}
	if ValidateURL(StoreZaffari, "https://www.zaffari.com.br/institucional") {
		t.Error("non-product path must not validate")
	}
	if ValidateURL(StoreCarrefour, "https://mercado.carrefour.com.br/promocoes") {
		t.Error(`path merely containing "/p" must not validate`)
	}
	if ValidateURL(StoreCarrefour, "https://mercado.carrefour.com.br/promo-123/p-especial") {
		t.Error("mid-path /p segment must not validate")
	}
	if ValidateURL(StoreZaffari, "https://www.zaffari.com.br/ofertas/p") {
		t.Error("product path without a SKU must not validate")
	}
	if !ValidateURL(StoreCarrefour, "https://mercado.carrefour.com.br/arroz-123/p/") {
		t.Error("trailing slash after /p should still validate")
	}
	if !ValidateURL(StoreAmazon, "https://www.amazon.com.br/dp/B0ABCDEF12") {
		t.Error("expected valid amazon URL to validate")
	}
}

func TestTitleFromSlug(t *testing.T) {
	title, ok := TitleFromSlug("https://www.zaffari.com.br/queijo-mussarela-fatiado-president-150g-1008729/p")
	if !ok {
		t.Fatal("expected a title from slug")
	}
	if title != "Queijo Mussarela Fatiado President 150g" {
		t.Errorf("TitleFromSlug = %q", title)
	}

	title, ok = TitleFromSlug("https://www.zaffari.com.br/água-mineral-sem-gás-500ml-987/p")
	if !ok {
		t.Fatal("expected a title from accented slug")
	}
	if title != "Água Mineral Sem Gás 500ml" {
		t.Errorf("TitleFromSlug accented = %q", title)
	}

	if _, ok := TitleFromSlug("https://mercado.carrefour.com.br/"); ok {
		t.Error("empty path must not yield a title")
	}
}
