package journal

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/alfredxing/calc/compute"
	date "github.com/joyt/godate"
	"github.com/shopspring/decimal"
)

// parsed is everything Open learns from an existing journal file.
type parsed struct {
	transactions []*Transaction
	accounts     map[string]bool
	commodities  map[string]bool
}

type linescanner struct {
	name    string
	scanner *bufio.Scanner
	line    int
}

func newLineScanner(name string, r io.Reader) *linescanner {
	return &linescanner{name: name, scanner: bufio.NewScanner(r)}
}

func (ls *linescanner) Scan() bool {
	if !ls.scanner.Scan() {
		return false
	}
	ls.line++
	return true
}

func (ls *linescanner) Text() string    { return ls.scanner.Text() }
func (ls *linescanner) Name() string    { return ls.name }
func (ls *linescanner) LineNumber() int { return ls.line }

type parser struct {
	scanner *linescanner

	dateLayout string

	strPrevDate string
	prevDate    time.Time
	prevDateErr error
}

// parseJournal reads a whole journal file: transactions, account directives
// and commodity directives.
func parseJournal(name string, r io.Reader) (*parsed, error) {
	out := &parsed{
		accounts:    make(map[string]bool),
		commodities: make(map[string]bool),
	}
	lp := parser{scanner: newLineScanner(name, r)}

	comments := []string{}
	for lp.scanner.Scan() {
		trimmedLine := strings.TrimSpace(lp.scanner.Text())

		var currentComment string
		if commentIdx := strings.Index(trimmedLine, ";"); commentIdx >= 0 {
			currentComment = trimmedLine[commentIdx:]
			trimmedLine = strings.TrimSpace(trimmedLine[:commentIdx])
		}

		if len(trimmedLine) == 0 {
			if len(currentComment) > 0 {
				comments = append(comments, currentComment)
			}
			continue
		}

		before, after, split := strings.Cut(trimmedLine, " ")
		if !split {
			return nil, fmt.Errorf("%s:%d: unable to parse transaction: %w", lp.scanner.Name(), lp.scanner.LineNumber(),
				fmt.Errorf("unable to parse payee line: %s", trimmedLine))
		}
		switch before {
		case "account":
			out.accounts[strings.TrimSpace(after)] = true
			lp.skipDirectiveBody()
		case "commodity":
			out.commodities[strings.TrimSpace(after)] = true
			lp.skipDirectiveBody()
		default:
			trans, transErr := lp.parseTransaction(before, after, currentComment, comments)
			comments = []string{}
			if transErr != nil {
				return nil, fmt.Errorf("%s:%d: unable to parse transaction: %w", lp.scanner.Name(), lp.scanner.LineNumber(), transErr)
			}
			out.transactions = append(out.transactions, trans)
			for _, p := range trans.Postings {
				out.accounts[p.Account] = true
				if p.Currency != "" {
					out.commodities[p.Currency] = true
				}
			}
		}
	}

	return out, nil
}

// skipDirectiveBody reads until a blank line, ignoring sub-directives.
func (lp *parser) skipDirectiveBody() {
	for lp.scanner.Scan() {
		if len(strings.TrimSpace(lp.scanner.Text())) == 0 {
			return
		}
	}
}

func (lp *parser) parseDate(dateString string) (transDate time.Time, err error) {
	// seen before, skip parse
	if lp.strPrevDate == dateString {
		return lp.prevDate, lp.prevDateErr
	}

	// try current date layout
	transDate, err = time.Parse(lp.dateLayout, dateString)
	if err != nil {
		// try to find new date layout
		transDate, lp.dateLayout, err = date.ParseAndGetLayout(dateString)
		if err != nil {
			err = fmt.Errorf("unable to parse date(%s): %w", dateString, err)
		}
	}

	// maybe next date is same
	lp.strPrevDate = dateString
	lp.prevDate = transDate
	lp.prevDateErr = err

	return
}

// Regex groups:
// 1: account name
// 2: currency code
// 3: amount (number or parenthesized expression)
var postingPattern = regexp.MustCompile(
	`^(?P<name>.+?)` +
		`(?:(?:\s{2,}|\t)` +
		`(?:(?P<currency>[A-Z\$]+)\s+)?` +
		`(?P<amount>[\-]?\d+(?:\.\d+)?|\([0-9+\-*\/. ]+\)))?\s*$`,
)

func (p *Posting) parsePosting(trimmedLine string, comment string) error {
	trimmedLine = strings.TrimSpace(trimmedLine)

	m := postingPattern.FindStringSubmatch(trimmedLine)
	if m == nil {
		return fmt.Errorf("invalid posting: %q", trimmedLine)
	}

	p.Account = m[1]
	p.Currency = m[2]
	p.Comment = comment

	if m[3] != "" {
		bal, err := compute.Evaluate(m[3])
		if err != nil {
			return err
		}
		p.Amount = decimal.NewFromFloat(bal)
	}

	return nil
}

func (lp *parser) parseTransaction(dateString, payeeString, payeeComment string, comments []string) (*Transaction, error) {
	transDate, derr := lp.parseDate(dateString)
	if derr != nil {
		return nil, derr
	}

	lines := []string{}
	for lp.scanner.Scan() {
		trimmedLine := lp.scanner.Text()
		lines = append(lines, trimmedLine)
		if len(trimmedLine) == 0 {
			break
		}
	}

	trans := &Transaction{}
	for _, trimmedLine := range lines {
		postingComment := ""
		if commentIdx := strings.Index(trimmedLine, ";"); commentIdx >= 0 {
			currentComment := trimmedLine[commentIdx:]
			trimmedLine = strings.TrimSpace(trimmedLine[:commentIdx])
			if len(trimmedLine) == 0 {
				comments = append(comments, currentComment)
				continue
			}
			postingComment = currentComment
		}

		if len(trimmedLine) == 0 {
			break
		}

		posting := Posting{}
		if err := posting.parsePosting(trimmedLine, postingComment); err != nil {
			return nil, err
		}
		trans.Postings = append(trans.Postings, posting)
	}

	trans.Payee = payeeString
	trans.Date = transDate
	trans.PayeeComment = payeeComment
	if len(comments) > 0 {
		trans.Comments = comments
	}

	if err := trans.IsBalanced(); err != nil {
		return nil, err
	}

	return trans, nil
}
