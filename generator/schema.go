package generator

// SchemaFields is the fixed invoice schema the model is instructed to
// fill. Every field maps to a parallel string array in the model's JSON
// response; item_id is the designated identifier array that defines the
// row count after balancing. Order here is the artifact column order.
var SchemaFields = []string{
	"description",
	"codigo_1",
	"quantity",
	"unit_price_usd",
	"amount_usd",
	"customer",
	"origin",
	"brand",
	"part_number",
	"invoice",
	"sender",
	"unit",
	"currency",
	"incoterm",
	"item_id",
	"invoice_date",
	"customer_address",
	"codigo_2",
	"invoice_total",
	"subtotal",
	"due_date",
}
