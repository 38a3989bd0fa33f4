package vision

// PagePrompt instructs the model to emit one pipe-delimited line per ledger
// entry. The format is deliberately not JSON: a single malformed line is
// recoverable, a malformed JSON document is not.
const PagePrompt = "You are a financial document parser.\n\n" +
	"Task:\n" +
	"- Read the attached page image of a financial document.\n" +
	"- Find every financial line item (an account or line description with a monetary amount).\n" +
	"- Output ONE line per item, nothing else.\n\n" +
	"Each line must have exactly this pipe-delimited format:\n" +
	"AccountName | Amount | Category | Period\n\n" +
	"Rules:\n" +
	"- Amount is a plain number, negative for losses or outflows.\n" +
	"- Category is one of: Revenue, Expense, Asset, Liability, Equity. Use Unknown if unclear.\n" +
	"- Period is like \"2024-03\" or \"Q1 2024\". Leave blank if the page shows none.\n" +
	"- Do NOT wrap the response in code fences.\n" +
	"- Do NOT add headers, explanations, or Markdown.\n" +
	"- If the page has no financial line items, output nothing.\n"
