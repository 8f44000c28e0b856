// Package descriptions holds the long-form descriptions of the MCP tools.
package descriptions

// Tool names exposed by the MCP server
const (
	ToolExtractLinks = "pdf_extract_links"
	ToolAnalyzeFile  = "pdf_analyze_file"
	ToolAnalyzeURL   = "pdf_analyze_url"
	ToolHarvestFile  = "pdf_harvest_file"
	ToolClassifyURL  = "url_classify"
	ToolListFiles    = "pdf_list_files"
	ToolServerInfo   = "pdf_server_info"
)

const (
	ExtractLinksDescription = `Find every link and email address in a PDF document.

**When to use:** Need the outbound references of a PDF, such as a procurement notice or a list of registered businesses that points at registry extracts.

**Examples:**
• "List the links in tender-2024-17.pdf"
• "Which email addresses appear in notice.pdf?"

**What is returned:** Link annotations and URLs found in the page text, read with two PDF libraries and merged. Each entry has its page, type (url, email or annotation) and source. A per-type count summarises the result.

**Common workflows:**
1. pdf_extract_links → url_classify on interesting links → pdf_analyze_url
2. pdf_extract_links → pdf_harvest_file when the links point at registry extracts`

	AnalyzeFileDescription = `Extract the text of a PDF document and analyze it.

**When to use:** Need page text, metadata, contact details or business registry fields from a local PDF.

**Examples:**
• "Analyze ekstrakt-L12345678A.pdf"
• "What is the NUIS and status in this QKB extract?"

**What is returned:** Page texts, document metadata, emails, phone numbers, dates, numeric values and a text sample. When the document is an Albanian QKB registry extract the business details (NUIS, name, legal form, registration date, activity, address, email, phone, status, document date) are included with Albanian and English labels.`

	AnalyzeURLDescription = `Download a document from a URL and analyze it like pdf_analyze_file.

**When to use:** A link points at a PDF, for example a registry extract on qkb.gov.al.

**Examples:**
• "Analyze https://qkb.gov.al/search/ekstrakt.pdf?nuis=L12345678A"

**Behaviour:** The body is accepted when it starts with %PDF, is served as application/pdf, or comes from a trusted government domain and is larger than 1000 bytes. Certificate errors are retried once without verification. Anything else is reported as an error.`

	HarvestFileDescription = `Follow the links of a PDF, download the linked documents in parallel and collect business registry records.

**When to use:** A PDF lists many businesses and links to their registry extracts.

**Examples:**
• "Harvest business records from the links in winners.pdf"
• "Harvest winners.pdf but only follow links that look like PDFs" (strict=true)

**What is returned:** Run counts, the outcome of every URL (success, skipped or error with a reason) and one business record per successfully parsed registry extract. At most the configured number of URLs is processed.

**Best practices:** Start without strict mode. Registry portals often serve PDFs from URLs without a .pdf extension.`

	ClassifyURLDescription = `Estimate whether a URL serves a PDF document without downloading it.

**When to use:** Triaging a list of links before downloading.

**What is returned:** The strict verdict (extension, content keywords or official domain), the liberal verdict, whether the domain is a social or search site that is never followed, and a score of 2, 1 or 0.`

	ListFilesDescription = `List the PDF files in the configured document directory.

**When to use:** Discover which files can be passed to the other tools by path.`

	ServerInfoDescription = `Show the server configuration and the available tools.

**When to use:** Before starting, to learn the document directory, the download limits and the trusted domains.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ToolExtractLinks: ExtractLinksDescription,
	ToolAnalyzeFile:  AnalyzeFileDescription,
	ToolAnalyzeURL:   AnalyzeURLDescription,
	ToolHarvestFile:  HarvestFileDescription,
	ToolClassifyURL:  ClassifyURLDescription,
	ToolListFiles:    ListFilesDescription,
	ToolServerInfo:   ServerInfoDescription,
}

// toolOrder is the registration and listing order
var toolOrder = []string{
	ToolExtractLinks,
	ToolAnalyzeFile,
	ToolAnalyzeURL,
	ToolHarvestFile,
	ToolClassifyURL,
	ToolListFiles,
	ToolServerInfo,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the tool names in registration order
func GetAllToolNames() []string {
	return append([]string(nil), toolOrder...)
}

// Summary returns the first line of a tool description
func Summary(toolName string) string {
	desc := GetToolDescription(toolName)
	for i := 0; i < len(desc); i++ {
		if desc[i] == '\n' {
			return desc[:i]
		}
	}
	return desc
}
