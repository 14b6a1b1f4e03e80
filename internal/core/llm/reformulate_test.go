package llm

import "testing"

func TestFirstSentence(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain sentence",
			in:   "What are the treatment options for acne?",
			want: "What are the treatment options for acne?",
		},
		{
			name: "extra sentences dropped",
			in:   "Is this contagious? It is a common question.",
			want: "Is this contagious?",
		},
		{
			name: "surrounding quotes removed",
			in:   `"Could this lesion be malignant?"`,
			want: "Could this lesion be malignant?",
		},
		{
			name: "leading blank lines skipped",
			in:   "\n\n  What causes eczema flare-ups?\nSecond line.",
			want: "What causes eczema flare-ups?",
		},
		{
			name: "decimal point is not a terminator",
			in:   "Is a 0.5 cm lesion dangerous? Maybe.",
			want: "Is a 0.5 cm lesion dangerous?",
		},
		{
			name: "no terminator keeps whole line",
			in:   "what should I do next",
			want: "what should I do next",
		},
		{
			name: "whitespace only",
			in:   "   \n\t ",
			want: "",
		},
	}
	for _, tc := range cases {
		if got := FirstSentence(tc.in); got != tc.want {
			t.Errorf("%s: FirstSentence(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
	}
}
