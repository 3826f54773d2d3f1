// Package ledger holds the owner's books: transactions (income and
// expense entries) and the clients they are attributed to.
//
// Every query is scoped by owner ID. Creation of both resource kinds is
// plan-gated: the service asks the quota engine before each insert and
// rejects the attempt without touching storage when the rolling-window
// allowance is spent. The check and the insert are two separate steps;
// a concurrent burst can briefly overshoot the limit, which is an
// accepted tradeoff for keeping creation a single cheap insert.
package ledger
