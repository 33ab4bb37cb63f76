package lookup

import (
	"reflect"
	"testing"
)

func testVocabulary() Vocabulary {
	return Vocabulary{
		Organizational:     []string{"UWV", "SVB", "IND", "Belastingdienst"},
		Juridical:          []string{"bestuursrecht", "strafrecht", "civielrecht"},
		LegalBasis:         []string{"Awb", "BW", "Sr", "WIA"},
		LegalBasisPatterns: []string{`^W[a-z]{2,8}$`, `^[0-9]+:[0-9]+[a-z]?$`},
	}
}

func TestClassify(t *testing.T) {
	c, err := NewClassifier(testVocabulary())
	if err != nil {
		t.Fatalf("NewClassifier() error: %v", err)
	}

	tests := []struct {
		name    string
		context string
		want    ContextTokens
	}{
		{
			name:    "empty context",
			context: "",
			want:    ContextTokens{},
		},
		{
			name:    "whitespace only",
			context: "  \t ",
			want:    ContextTokens{},
		},
		{
			name:    "pipe separated mixed categories",
			context: "UWV | bestuursrecht | Awb",
			want: ContextTokens{
				Organizational: []string{"UWV"},
				Juridical:      []string{"bestuursrecht"},
				LegalBasis:     []string{"Awb"},
			},
		},
		{
			name:    "unmatched tokens discarded",
			context: "UWV, kantoor Amsterdam, dossier 12",
			want: ContextTokens{
				Organizational: []string{"UWV"},
			},
		},
		{
			name:    "wet-style abbreviation via pattern",
			context: "Wvggz / strafrecht",
			want: ContextTokens{
				Juridical:  []string{"strafrecht"},
				LegalBasis: []string{"Wvggz"},
			},
		},
		{
			name:    "article reference via pattern",
			context: "6:162 BW",
			want: ContextTokens{
				LegalBasis: []string{"6:162", "BW"},
			},
		},
		{
			name:    "case insensitive set match",
			context: "uwv; AWB",
			want: ContextTokens{
				Organizational: []string{"uwv"},
				LegalBasis:     []string{"AWB"},
			},
		},
		{
			name:    "duplicates collapse to first occurrence",
			context: "Awb | awb | Awb",
			want: ContextTokens{
				LegalBasis: []string{"Awb"},
			},
		},
		{
			name:    "surrounding punctuation trimmed",
			context: "(UWV), 'Awb'.",
			want: ContextTokens{
				Organizational: []string{"UWV"},
				LegalBasis:     []string{"Awb"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.context)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Classify(%q) = %+v, want %+v", tt.context, got, tt.want)
			}
		})
	}
}

func TestClassifyDeterministicAndDisjoint(t *testing.T) {
	// WIA sits in the legal-basis set; precedence keeps it out of the other
	// categories even if a vocabulary lists it twice.
	vocab := testVocabulary()
	vocab.Organizational = append(vocab.Organizational, "WIA")
	c, err := NewClassifier(vocab)
	if err != nil {
		t.Fatalf("NewClassifier() error: %v", err)
	}

	const context = "WIA | UWV | bestuursrecht"
	first := c.Classify(context)
	for i := 0; i < 10; i++ {
		if got := c.Classify(context); !reflect.DeepEqual(got, first) {
			t.Fatalf("Classify() not deterministic: %+v vs %+v", got, first)
		}
	}

	seen := make(map[string]string)
	for category, toks := range map[string][]string{
		"organizational": first.Organizational,
		"juridical":      first.Juridical,
		"legal-basis":    first.LegalBasis,
	} {
		for _, tok := range toks {
			if prev, dup := seen[tok]; dup {
				t.Errorf("token %q classified in both %s and %s", tok, prev, category)
			}
			seen[tok] = category
		}
	}
	if len(first.LegalBasis) != 1 || first.LegalBasis[0] != "WIA" {
		t.Errorf("precedence should place WIA in legal-basis, got %+v", first)
	}
}

func TestNewClassifierBadPattern(t *testing.T) {
	vocab := testVocabulary()
	vocab.LegalBasisPatterns = []string{"(["}
	if _, err := NewClassifier(vocab); err == nil {
		t.Fatal("NewClassifier() should reject an invalid pattern")
	}
}
